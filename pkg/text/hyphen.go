package text

import (
	"strings"
	"unicode"
)

// Hyphenator finds hyphenation points with Liang's algorithm.
type Hyphenator struct {
	patterns map[string][]uint8
	maxLen   int
	// MinLeft and MinRight are the fewest letters kept on each side.
	MinLeft  int
	MinRight int
}

// NewHyphenator parses whitespace separated TeX patterns such as "hy3ph".
func NewHyphenator(patterns string) *Hyphenator {
	h := &Hyphenator{patterns: map[string][]uint8{}, MinLeft: 2, MinRight: 2}
	for _, p := range strings.Fields(patterns) {
		var letters []rune
		values := []uint8{0}
		for _, r := range p {
			if r >= '0' && r <= '9' {
				values[len(values)-1] = uint8(r - '0')
				continue
			}
			letters = append(letters, r)
			values = append(values, 0)
		}
		h.patterns[string(letters)] = values
		h.maxLen = max(h.maxLen, len(letters))
	}
	return h
}

// Hyphenate returns the rune offsets inside word where a hyphen may be
// inserted, ascending. Words of three letters or fewer are never split.
func (h *Hyphenator) Hyphenate(word string) []int {
	runes := []rune(strings.ToLower(word))
	n := len(runes)
	if n <= 3 || n < h.MinLeft+h.MinRight {
		return nil
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return nil
		}
	}
	padded := make([]rune, 0, n+2)
	padded = append(padded, '.')
	padded = append(padded, runes...)
	padded = append(padded, '.')

	// points[i] is the value between padded[i-1] and padded[i].
	points := make([]uint8, len(padded)+1)
	for i := range padded {
		for l := 1; l <= h.maxLen && i+l <= len(padded); l++ {
			v, ok := h.patterns[string(padded[i:i+l])]
			if !ok {
				continue
			}
			for k, d := range v {
				points[i+k] = max(points[i+k], d)
			}
		}
	}
	var out []int
	for pos := h.MinLeft; pos <= n-h.MinRight; pos++ {
		// A break before runes[pos] lies between padded[pos] and padded[pos+1].
		if points[pos+1]%2 == 1 {
			out = append(out, pos)
		}
	}
	return out
}

// englishPatterns is a small subset of the US English TeX patterns.
const englishPatterns = `
.ach4 .ad4der .af1t .al3t .am5at .an5c .ang4 .ani5m .ant4 .an3te .anti5s
.ar5s .ar4tie .ar4ty .as3c .as1p .as1s .aster5 .atom5 .au1d .av4i .awn4
.ba4g .ba5na .bas4e .ber4 .be5ra .be3sm .be5sto .bri2 .but4ti .cam4pe
.can5c .capa5b .car5ol .ca4t .ce4la .ch4 .chill5i .ci2 .cit5r .co3e .co4r
.cor5ner .de4moi .de3o .de3ra .de3ri .des4c .dictio5 .do4t .du4c .dumb5
.earth5 .eas3i .eb4 .eer4 .eg2 .el5d .el3em .enam3 .en3g .en3s .eq5ui5t
.er4ri .es3 .eu3 .eye5 .fes3 .for5mer .ga2 .ge2 .gen3t4 .ge5og .gi5a .gi4b
.go4r .hand5i .han5k .he2 .hero5i .hes3 .het3 .hi3b .hi3er .hon5ey .hon3o
.hov5 .id4l .idol3 .im3m .im5pin .in1 .in3ci .ine2 .in2k .in3s .ir5r .is4i
.ju3r .la4cy .la4m .lat5er .lath5 .le2 .leg5e .len4 .lep5 .lev1 .li4g
.lig5a .li2n .li3o .li4t .mag5a5 .mal5o .man5a .mar5ti .me2 .mer3c .me5ter
.mis1 .mist5i .mon3e .mo3ro .mu5ta .muta5b .ni4c .od2 .odd5 .of5te .or5ato
.or3c .or1d .or3t .os3 .os4tl .oth3 .out3 .ped5al .pe5te .pe5tit .pi4e
.pio5n .pi2t .pre3m .ra4c .ran4t .ratio5na .ree2 .re5mit .res2 .re5stat
.ri4g .rit5u .ro4q .ros5t .row5d .ru4d .sci3e .self5 .sell5 .se2n .se5rie
.sh2 .si2 .sing4 .st4 .sta5bl .sy2 .ta4 .te4 .ten5an .th2 .ti2 .til4 .tim5o5
.ting4 .tin5k .ton4a .to4p .top5i .tou5s .trib5ut .un1a .un3ce .under5
.un1e .un5k .un5o .un3u .up3 .ure3 .us5a .ven4de .ve5ra .wil5i .ye4
4ab. a5bal a5ban abe2 ab5erd abi5a ab5it5ab ab5lat ab5o5liz 4abr ab5rog
ab3ul a4car ac5ard ac5aro a5ceou ac1er a5chet 4a2ci a3cie ac1in a3cio
ac5rob act5if ac3ul ac4um a2d ad4din ad5er. 2adi a3dia ad3ica adi4er
a3dio a3dit a5diu ad4le ad3ow ad5ran ad4su 4adu a3duc ad5um ae4r aeri4e
a2f aff4 a4gab aga4n ag5ell age4o 4ageu ag1i 4ag4l ag1n a2go 3agog ag3oni
a5guer ag5ul a4gy a3ha a3he ah4l a3ho ai2 a5ia a3ic. ai5ly a4i4n ain5in
ain5o ait5en a1j ak1en al5ab al3ad a4lar 4aldi 2ale al3end a4lenti a5le5o
al1i al4ia. ali4e al5lev 4allic 4alm a5log. a4ly. 4alys 5a5lyst 5alyt
3alyz 4ama am5ab am3ag ama5ra am5asc a4matis a4m5ato am5era am3ic am5if
am5ily am1in ami4no a2mo a5mon amor5i amp5en a2n an3age 3analy a3nar an3arc
anar4i a3nati 4and ande4s an3dis an1dl an4dow a5nee a3nen an5est. a3neu
2ang ang5ie an1gl a4n1ic a3nies an3i3f an4ime a5nimi a5nine an3io a3nip
an3ish an3it a3niu an4kli 5anniz ano4 an5ot anoth5 an2sa an4sco an4sn
an2sp ans3po an4st an4sur antal4 an4tie 4anto an2tr an4tw an3ua an3ul
a5nur 4ao apar4 ap5at ap5ero a3pher 4aphi a4pilla ap5illar ap3in ap3ita
a3pitu a2pl apoc5 ap5ola apor5i apos3t aps5es a3pu aque5 2a2r ar3act
a5rade ar5adis ar3al a5ramete aran4g ara3p ar4at a5ratio ar5ativ a5rau
ar5av4 araw4 arbal4 ar4chan ar5dine ar4dr ar5eas a3ree ar3ent a5ress
ar4fi ar4fl ar1i ar5ial ar3ian a3riet ar4im ar5inat ar3io ar2iz ar2mi
ar5o5d a5roni a3roo ar2p ar3q arre4 ar4sa ar2sh 4as. as4ab as3ant ashi4
a5sia. a3sib a3sic 5a5si4t ask3i as4l a4soc as5ph as4sh as3ten as1tr
asur5a a2ta at3abl at5ac at3alo at5ap ate5c at5ech at3ego at3en. at3era
ater5n a5terna at3est at5ev 4ath ath5em a5then at4ho ath5om 4ati. a5tia
at5i5b at1ic at3if ation5ar at3itu a4tog a2tom at5omiz a4top a4tos a1tr
at5rop at4sk at4tag at5te at4th a2tu at5ua at5ue at3ul at3ura a2ty au4b
augh3 au3gu au4l2 aun5d au3r au5sib aut5en au1th a2va av3ag a5van ave4no
av3era av5ern av5ery av1i avi4er av3ig av5oc a1vor 3away aw3i aw4ly aws4
ax4ic ax4id ay5al aye4 ays4 azi4er azz5i
hy3ph he2n hena4 hen5at 1na n2at 1tio 2io o2n
`

// hyphenatorPatterns are the built in pattern sets by language subtag.
var hyphenatorPatterns = map[string]string{
	"en": englishPatterns,
}

// languageBase reduces "en-US" to "en".
func languageBase(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

package task

// Update is returned by callbacks to request work from the frame loop.
type Update uint8

const (
	// DoNothing: the screen does not need to be regenerated.
	DoNothing Update = iota
	// RegenerateStyledDomForCurrentWindow calls the layout function of the
	// window that ran the callback again on the next frame.
	RegenerateStyledDomForCurrentWindow
	// RegenerateStyledDomForAllWindows regenerates every window.
	RegenerateStyledDomForAllWindows
)

func (u Update) String() string {
	switch u {
	case DoNothing:
		return "DoNothing"
	case RegenerateStyledDomForCurrentWindow:
		return "RegenerateStyledDomForCurrentWindow"
	case RegenerateStyledDomForAllWindows:
		return "RegenerateStyledDomForAllWindows"
	}
	return "Update(?)"
}

// Max returns the stronger of two updates.
func (u Update) Max(o Update) Update {
	if o > u {
		return o
	}
	return u
}

package webview

// LoadingState describes where a navigation currently stands. The ordinal
// values cross the transport boundary as raw integers and are mirrored by
// the widget side; never reorder them.
type LoadingState int

const (
	// LoadingStateNone is the client-side default before any navigation;
	// the engine itself never reports it.
	LoadingStateNone LoadingState = iota
	LoadingStateLoading
	LoadingStateNavigationCompleted
)

func (s LoadingState) String() string {
	switch s {
	case LoadingStateNone:
		return "none"
	case LoadingStateLoading:
		return "loading"
	case LoadingStateNavigationCompleted:
		return "navigationCompleted"
	default:
		return "unknown"
	}
}

// PointerButton identifies a forwarded mouse button. Same ordinal-identity
// contract as LoadingState.
type PointerButton int

const (
	PointerButtonNone PointerButton = iota
	PointerButtonPrimary
	PointerButtonSecondary
	PointerButtonTertiary
)

func (b PointerButton) String() string {
	switch b {
	case PointerButtonNone:
		return "none"
	case PointerButtonPrimary:
		return "primary"
	case PointerButtonSecondary:
		return "secondary"
	case PointerButtonTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

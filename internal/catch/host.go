package catch

// Result summarizes a finished game.
type Result struct {
	Variant string
	Score   int
	Level   int
	Missed  int
}

// Host is what the surrounding application provides to a running game.
type Host interface {
	// ReportScore is called after every catch with the new total.
	ReportScore(score int)
	// ReportGameOver is called once when the miss cap is reached.
	ReportGameOver(result Result)
	// RequestClose hands control back to the host.
	RequestClose()
}

// HostFuncs adapts plain functions to Host. Nil fields are no-ops.
type HostFuncs struct {
	OnScore    func(score int)
	OnGameOver func(result Result)
	OnClose    func()
}

var _ Host = HostFuncs{}

func (h HostFuncs) ReportScore(score int) {
	if h.OnScore != nil {
		h.OnScore(score)
	}
}

func (h HostFuncs) ReportGameOver(result Result) {
	if h.OnGameOver != nil {
		h.OnGameOver(result)
	}
}

func (h HostFuncs) RequestClose() {
	if h.OnClose != nil {
		h.OnClose()
	}
}

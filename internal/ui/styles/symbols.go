package styles

import "github.com/raphi011/shelf/internal/resolve"

// Symbols marks where a display name came from
type Symbols struct {
	Cache     string
	Backend   string
	Heuristic string
	Raw       string
	Degraded  string
}

var defaultSymbols = Symbols{
	Cache:     "●",
	Backend:   "↓",
	Heuristic: "≈",
	Raw:       "·",
	Degraded:  "!",
}

var nerdfontSymbols = Symbols{
	Cache:     "\uf1c0", // nf-fa-database
	Backend:   "\uf1b6", // nf-fa-steam
	Heuristic: "\uf1ab", // nf-fa-language
	Raw:       "\uf07b", // nf-fa-folder
	Degraded:  "\uf071", // nf-fa-warning
}

var (
	useNerdfont    bool
	currentSymbols = defaultSymbols
)

// SetNerdfont enables or disables nerd font symbols
func SetNerdfont(enabled bool) {
	useNerdfont = enabled
	if enabled {
		currentSymbols = nerdfontSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}

// NerdfontEnabled returns whether nerd font symbols are enabled
func NerdfontEnabled() bool {
	return useNerdfont
}

// CurrentSymbols returns the current symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// FormatSource renders a result's source as "symbol source", colored by
// how trustworthy the name is.
func FormatSource(r resolve.Result) string {
	sym := CurrentSymbols()
	if r.Degraded() {
		return WarningStyle.Render(sym.Degraded + " " + string(r.Source))
	}
	switch r.Source {
	case resolve.SourceCache:
		return SuccessStyle.Render(sym.Cache + " " + string(r.Source))
	case resolve.SourceBackend:
		return SuccessStyle.Render(sym.Backend + " " + string(r.Source))
	case resolve.SourceHeuristic:
		return PrimaryStyle.Render(sym.Heuristic + " " + string(r.Source))
	default:
		return MutedStyle.Render(sym.Raw + " " + string(r.Source))
	}
}

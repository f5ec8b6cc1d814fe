package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"livefeed/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	Label string
}

func NewFormatter(label string) *Formatter {
	if label == "" {
		label = "LIVE"
	}
	return &Formatter{Label: strings.ToUpper(label)}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

func (f *Formatter) Render(st *State, mode RenderMode) string {
	snap := st.Snapshot()

	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("["+f.Label+"] ", ansiDim))

	for i, token := range st.Tokens() {
		if i > 0 {
			sb.WriteString(colorize("  ||  ", ansiDim))
		}
		ts := snap[token]

		px := "--"
		col := ansiYellow
		if ts.price.HasValue {
			px = FormatPrice(ts.price.Price)
			col = directionColor(ts.price.Direction)
		}

		// 涨跌幅
		chg := "%=--"
		chgCol := ansiYellow
		if ts.hasChange {
			chg = fmt.Sprintf("%+.2f%%", ts.change)
			switch {
			case ts.change > 0:
				chgCol = ansiGreen
			case ts.change < 0:
				chgCol = ansiRed
			}
		}

		sb.WriteString(token)
		sb.WriteString(" ")
		sb.WriteString(colorize(px, col))
		sb.WriteString(" ")
		sb.WriteString(colorize(chg, chgCol))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

// FormatPrice 最短无损表示, 不使用科学计数法
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func directionColor(d domain.Direction) string {
	switch d {
	case domain.DirectionUp:
		return ansiGreen
	case domain.DirectionDown:
		return ansiRed
	default:
		return ansiYellow
	}
}

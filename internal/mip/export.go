package mip

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine keeps exported lines well below the 255 character limit some
// LP readers enforce.
const termsPerLine = 8

// WriteLP writes m in CPLEX LP text format. Output is deterministic: sections
// follow registration order and every name is the one given at registration.
func WriteLP(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	obj := m.Objective()
	if obj != nil && obj.Sense == Maximize {
		bw.WriteString("Maximize\n")
	} else {
		bw.WriteString("Minimize\n")
	}
	bw.WriteString(" obj:")
	if obj != nil && len(obj.Expr) > 0 {
		writeExpr(bw, m, obj.Expr)
	} else if m.NumVars() > 0 {
		bw.WriteString(" 0 " + m.vars[0].Name)
	}
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for _, c := range m.constraints {
		bw.WriteString(" " + c.Name + ":")
		if len(c.Expr) > 0 {
			writeExpr(bw, m, c.Expr)
		} else if m.NumVars() > 0 {
			bw.WriteString(" 0 " + m.vars[0].Name)
		}
		bw.WriteString(" " + c.Rel.String() + " " + formatNumber(c.RHS) + "\n")
	}

	var bounds, binaries, generals []string
	for _, v := range m.vars {
		switch v.Domain {
		case Binary:
			binaries = append(binaries, v.Name)
			if v.LB == 0 && v.UB == 1 {
				continue
			}
		case Integer:
			generals = append(generals, v.Name)
		}
		if b := formatBound(v); b != "" {
			bounds = append(bounds, b)
		}
	}
	if len(bounds) > 0 {
		bw.WriteString("Bounds\n")
		for _, b := range bounds {
			bw.WriteString(" " + b + "\n")
		}
	}
	writeNameSection(bw, "Binaries", binaries)
	writeNameSection(bw, "Generals", generals)
	bw.WriteString("End\n")

	return bw.Flush()
}

func writeExpr(bw *bufio.Writer, m *Model, expr Expr) {
	for i, t := range expr {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n  ")
		}
		coef := t.Coef
		sign := "+"
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if i == 0 && sign == "+" {
			bw.WriteString(" ")
		} else {
			bw.WriteString(" " + sign + " ")
		}
		if coef != 1 {
			bw.WriteString(formatNumber(coef) + " ")
		}
		bw.WriteString(m.vars[t.Var].Name)
	}
}

func writeNameSection(bw *bufio.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	bw.WriteString(title + "\n")
	for i := 0; i < len(names); i += termsPerLine {
		end := i + termsPerLine
		if end > len(names) {
			end = len(names)
		}
		bw.WriteString(" " + strings.Join(names[i:end], " ") + "\n")
	}
}

// formatBound returns the Bounds line of v, or "" for the LP default [0, +inf).
func formatBound(v VarInfo) string {
	switch {
	case v.LB == v.UB:
		return v.Name + " = " + formatNumber(v.LB)
	case math.IsInf(v.LB, -1) && math.IsInf(v.UB, 1):
		return v.Name + " free"
	case v.LB == 0 && math.IsInf(v.UB, 1):
		return ""
	default:
		return formatNumber(v.LB) + " <= " + v.Name + " <= " + formatNumber(v.UB)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

package engine

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseSVGPath converts SVG path data into absolute path commands. Supported
// commands are M, L, H, V, C, Q and Z in both absolute and relative form;
// H and V become L.
func ParseSVGPath(d string) ([]PathCommand, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	var (
		out            []PathCommand
		cx, cy, sx, sy float64
		cmd            rune
	)
	i := 0
	num := func() (float64, error) {
		if i >= len(toks) || toks[i].isCmd {
			return 0, fmt.Errorf("path %q: missing number after %c", d, cmd)
		}
		v := toks[i].num
		i++
		return v, nil
	}
	nums := func(n int) ([]float64, error) {
		vs := make([]float64, n)
		for k := range vs {
			v, err := num()
			if err != nil {
				return nil, err
			}
			vs[k] = v
		}
		return vs, nil
	}

	for i < len(toks) {
		if toks[i].isCmd {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path %q: data must start with a command", d)
		}
		rel := unicode.IsLower(cmd)
		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = cx, cy
		}

		switch unicode.ToUpper(cmd) {
		case 'M':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cx, cy = ox+v[0], oy+v[1]
			sx, sy = cx, cy
			out = append(out, PathCommand{"M", cx, cy})
			// Further pairs after a move are implicit line-tos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cx, cy = ox+v[0], oy+v[1]
			out = append(out, PathCommand{"L", cx, cy})
		case 'H':
			v, err := num()
			if err != nil {
				return nil, err
			}
			cx = ox + v
			out = append(out, PathCommand{"L", cx, cy})
		case 'V':
			v, err := num()
			if err != nil {
				return nil, err
			}
			cy = oy + v
			out = append(out, PathCommand{"L", cx, cy})
		case 'C':
			v, err := nums(6)
			if err != nil {
				return nil, err
			}
			out = append(out, PathCommand{"C", ox + v[0], oy + v[1], ox + v[2], oy + v[3], ox + v[4], oy + v[5]})
			cx, cy = ox+v[4], oy+v[5]
		case 'Q':
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			out = append(out, PathCommand{"Q", ox + v[0], oy + v[1], ox + v[2], oy + v[3]})
			cx, cy = ox+v[2], oy+v[3]
		case 'Z':
			out = append(out, PathCommand{"Z"})
			cx, cy = sx, sy
			// Z takes no arguments; a following number is an error.
			if i < len(toks) && !toks[i].isCmd {
				return nil, fmt.Errorf("path %q: unexpected number after Z", d)
			}
		default:
			return nil, fmt.Errorf("path %q: unsupported command %c", d, cmd)
		}
	}
	return out, nil
}

type pathToken struct {
	isCmd bool
	cmd   rune
	num   float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	rs := []rune(d)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r) || r == ',':
			i++
		case unicode.IsLetter(r) && r != 'e' && r != 'E':
			toks = append(toks, pathToken{isCmd: true, cmd: r})
			i++
		default:
			j := i
			if rs[j] == '-' || rs[j] == '+' {
				j++
			}
			seenDot, seenExp := false, false
		scan:
			for j < len(rs) {
				c := rs[j]
				switch {
				case unicode.IsDigit(c):
				case c == '.' && !seenDot && !seenExp:
					seenDot = true
				case (c == 'e' || c == 'E') && !seenExp:
					seenExp = true
					if j+1 < len(rs) && (rs[j+1] == '-' || rs[j+1] == '+') {
						j++
					}
				default:
					break scan
				}
				j++
			}
			if j == i {
				return nil, fmt.Errorf("path %q: unexpected %q", d, r)
			}
			v, err := strconv.ParseFloat(string(rs[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", d, err)
			}
			toks = append(toks, pathToken{num: v})
			i = j
		}
	}
	return toks, nil
}

package pdf

import (
	"bytes"
	"strconv"

	"github.com/devtamer/pdf-redactor-for-mac/geom"
)

// scrubContent filters a decoded page content stream, removing drawing
// operations whose device-space position falls inside any of the given
// rectangles (document points, bottom-left origin):
//
//   - text-showing operators (Tj, TJ, ', ") are dropped when a
//     rectangle touches the estimated extent of the shown text: one
//     line band tall, from the text origin to an advance estimate
//     built from the operands and the current font size. Glyph widths
//     are not known here, so the estimate leans wide and a mark over
//     any part of the text removes the whole show. Line-advance side
//     effects of ' and " are kept,
//   - XObject paints (Do) and inline images (BI..EI) are dropped when
//     their transformed unit square touches a rectangle,
//   - path paints are dropped when any path point touches a rectangle,
//     unless the path participates in clipping.
//
// Positioning, state and clipping operators always survive, so the
// remaining content renders exactly where it did before. Returns the
// filtered stream and the number of operations removed.
func scrubContent(content []byte, rects []geom.Rect) ([]byte, int) {
	norm := make([]geom.Rect, len(rects))
	for i, r := range rects {
		norm[i] = r.Normalize()
	}

	s := &scrubber{
		rects: norm,
		ctm:   matIdentity(),
		tm:    matIdentity(),
		tlm:   matIdentity(),
	}
	for _, t := range lexContent(content) {
		switch t.kind {
		case tokOperator:
			s.handleOp(t)
		case tokInline:
			s.handleInlineImage(t)
		default:
			s.operands = append(s.operands, t)
		}
	}
	// Trailing operands with no operator: malformed, pass through as-is.
	s.flushOperands(&s.out)

	return s.out.Bytes(), s.removed
}

// mat is a PDF transformation matrix [a b c d e f].
type mat [6]float64

func matIdentity() mat { return mat{1, 0, 0, 1, 0, 0} }

func matTranslate(tx, ty float64) mat { return mat{1, 0, 0, 1, tx, ty} }

// matMul returns a × b in PDF order (a applied first).
func matMul(a, b mat) mat {
	return mat{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

func (m mat) apply(x, y float64) geom.Point {
	return geom.Point{
		X: m[0]*x + m[2]*y + m[4],
		Y: m[1]*x + m[3]*y + m[5],
	}
}

type scrubber struct {
	rects []geom.Rect
	out   bytes.Buffer

	ctm      mat
	ctmStack []mat

	// Text object state.
	tm, tlm  mat
	leading  float64
	fontSize float64

	operands []token

	// Current path, buffered until its painting operator decides
	// whether the whole path survives.
	pathBuf    bytes.Buffer
	pathPoints []geom.Point
	sawClip    bool

	removed int
}

func (s *scrubber) handleOp(op token) {
	switch string(op.raw) {
	case "q":
		s.ctmStack = append(s.ctmStack, s.ctm)
		s.emit(op)
	case "Q":
		if n := len(s.ctmStack); n > 0 {
			s.ctm = s.ctmStack[n-1]
			s.ctmStack = s.ctmStack[:n-1]
		}
		s.emit(op)
	case "cm":
		if v, ok := s.numbers(6); ok {
			s.ctm = matMul(mat{v[0], v[1], v[2], v[3], v[4], v[5]}, s.ctm)
		}
		s.emit(op)

	case "BT":
		s.tm = matIdentity()
		s.tlm = matIdentity()
		s.emit(op)
	case "ET":
		s.emit(op)
	case "Tm":
		if v, ok := s.numbers(6); ok {
			s.tlm = mat{v[0], v[1], v[2], v[3], v[4], v[5]}
			s.tm = s.tlm
		}
		s.emit(op)
	case "Td":
		if v, ok := s.numbers(2); ok {
			s.translateLine(v[0], v[1])
		}
		s.emit(op)
	case "TD":
		if v, ok := s.numbers(2); ok {
			s.leading = -v[1]
			s.translateLine(v[0], v[1])
		}
		s.emit(op)
	case "TL":
		if v, ok := s.numbers(1); ok {
			s.leading = v[0]
		}
		s.emit(op)
	case "Tf":
		if v, ok := s.numbers(1); ok {
			s.fontSize = v[0]
		}
		s.emit(op)
	case "T*":
		s.nextLine()
		s.emit(op)

	case "Tj", "TJ":
		w := s.showWidth()
		if s.textHit(w) {
			s.drop()
		} else {
			s.emit(op)
		}
		s.advanceShow(w)
	case "'":
		s.nextLine()
		w := s.showWidth()
		if s.textHit(w) {
			// Keep the implicit line advance so later shows stay put.
			s.dropTo("T*")
		} else {
			s.emit(op)
		}
		s.advanceShow(w)
	case "\"":
		s.nextLine()
		w := s.showWidth()
		if s.textHit(w) {
			s.dropTo("T*")
		} else {
			s.emit(op)
		}
		s.advanceShow(w)

	case "m", "l", "c", "v", "y", "re":
		s.recordPathPoints(op)
		s.bufferPathOp(op)
	case "W", "W*":
		s.sawClip = true
		s.bufferPathOp(op)
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n":
		s.finishPath(op)

	case "Do":
		if s.placedHit() {
			s.drop()
		} else {
			s.emit(op)
		}

	default:
		s.emit(op)
	}
}

func (s *scrubber) handleInlineImage(t token) {
	s.flushOperands(&s.out)
	if s.placedHit() {
		s.removed++
		return
	}
	s.out.Write(t.raw)
	s.out.WriteByte('\n')
}

func (s *scrubber) translateLine(tx, ty float64) {
	s.tlm = matMul(matTranslate(tx, ty), s.tlm)
	s.tm = s.tlm
}

func (s *scrubber) nextLine() {
	s.translateLine(0, -s.leading)
}

// avgGlyphWidth is the advance estimate per glyph, in em. Real widths
// need font metrics this layer does not have; the estimate leans wide
// so text partially under a mark never survives.
const avgGlyphWidth = 0.6

func (s *scrubber) curFontSize() float64 {
	if s.fontSize > 0 {
		return s.fontSize
	}
	return 10
}

// showWidth estimates the text-space advance of the pending show
// operands: the string operand of Tj, ' and ", or the strings and
// kerning numbers of a TJ array.
func (s *scrubber) showWidth() float64 {
	fs := s.curFontSize()
	w := 0.0
	for _, t := range s.operands {
		switch t.kind {
		case tokString:
			w += float64(stringGlyphs(t.raw)) * avgGlyphWidth * fs
		case tokNumber:
			// TJ adjustments are in thousandths of text space,
			// negative values widen the gap.
			w -= t.num / 1000 * fs
		}
	}
	if w < 0 {
		w = 0
	}
	return w
}

// stringGlyphs counts the glyphs a string token shows.
func stringGlyphs(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '<' {
		digits := 0
		for _, c := range raw[1:] {
			if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' {
				digits++
			}
		}
		return (digits + 1) / 2
	}
	n := 0
	for i := 1; i < len(raw)-1; i++ {
		if raw[i] == '\\' {
			i++
		}
		n++
	}
	return n
}

// advanceShow moves the text matrix past the shown text so following
// shows in the same text object are tested at their own position.
func (s *scrubber) advanceShow(width float64) {
	s.tm = matMul(matTranslate(width, 0), s.tm)
}

// textHit reports whether a mark touches the estimated extent of the
// pending show: from the text origin to the advance estimate, one line
// band tall.
func (s *scrubber) textHit(width float64) bool {
	trm := matMul(s.tm, s.ctm)
	fs := s.curFontSize()
	corners := []geom.Point{
		trm.apply(0, -0.22*fs), trm.apply(width, -0.22*fs),
		trm.apply(0, 0.78*fs), trm.apply(width, 0.78*fs),
	}
	box := geom.Rect{X0: corners[0].X, Y0: corners[0].Y, X1: corners[0].X, Y1: corners[0].Y}
	for _, c := range corners[1:] {
		box = box.Union(geom.Rect{X0: c.X, Y0: c.Y, X1: c.X, Y1: c.Y})
	}
	for _, r := range s.rects {
		if r.Intersects(box) {
			return true
		}
	}
	return false
}

// placedHit reports whether the CTM-transformed unit square (the form
// or image placement area) touches a mark.
func (s *scrubber) placedHit() bool {
	corners := []geom.Point{
		s.ctm.apply(0, 0), s.ctm.apply(1, 0),
		s.ctm.apply(0, 1), s.ctm.apply(1, 1),
	}
	box := geom.Rect{X0: corners[0].X, Y0: corners[0].Y, X1: corners[0].X, Y1: corners[0].Y}
	for _, c := range corners[1:] {
		box = box.Union(geom.Rect{X0: c.X, Y0: c.Y, X1: c.X, Y1: c.Y})
	}
	for _, r := range s.rects {
		if r.Intersects(box) || r.Contains(geom.Point{X: box.X0, Y: box.Y0}) {
			return true
		}
	}
	return false
}

func (s *scrubber) recordPathPoints(op token) {
	var pts []geom.Point
	switch string(op.raw) {
	case "re":
		if v, ok := s.numbers(4); ok {
			x, y, w, h := v[0], v[1], v[2], v[3]
			pts = []geom.Point{
				s.ctm.apply(x, y), s.ctm.apply(x+w, y),
				s.ctm.apply(x, y+h), s.ctm.apply(x+w, y+h),
			}
		}
	default:
		// Every pair of trailing numbers is a coordinate.
		nums := s.allNumbers()
		for i := 0; i+1 < len(nums); i += 2 {
			pts = append(pts, s.ctm.apply(nums[i], nums[i+1]))
		}
	}
	s.pathPoints = append(s.pathPoints, pts...)
}

func (s *scrubber) finishPath(op token) {
	s.flushOperands(&s.pathBuf)
	hit := false
	if !s.sawClip && string(op.raw) != "n" {
		for _, p := range s.pathPoints {
			if s.pointHit(p) {
				hit = true
				break
			}
		}
	}
	if hit {
		s.removed++
	} else {
		s.out.Write(s.pathBuf.Bytes())
		s.out.Write(op.raw)
		s.out.WriteByte('\n')
	}
	s.pathBuf.Reset()
	s.pathPoints = s.pathPoints[:0]
	s.sawClip = false
}

func (s *scrubber) pointHit(p geom.Point) bool {
	for _, r := range s.rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

func (s *scrubber) bufferPathOp(op token) {
	writeOp(&s.pathBuf, s.operands, op.raw)
	s.operands = nil
}

func (s *scrubber) emit(op token) {
	writeOp(&s.out, s.operands, op.raw)
	s.operands = nil
}

// writeOp writes one operation, operands and operator on a single line.
func writeOp(buf *bytes.Buffer, operands []token, op []byte) {
	for _, t := range operands {
		buf.Write(t.raw)
		buf.WriteByte(' ')
	}
	buf.Write(op)
	buf.WriteByte('\n')
}

func (s *scrubber) drop() {
	s.operands = nil
	s.removed++
}

// dropTo replaces the current operation with a bare replacement
// operator, discarding the operands.
func (s *scrubber) dropTo(replacement string) {
	s.operands = nil
	s.removed++
	s.out.WriteString(replacement)
	s.out.WriteByte('\n')
}

// flushOperands writes any dangling operands verbatim.
func (s *scrubber) flushOperands(buf *bytes.Buffer) {
	for i, t := range s.operands {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.Write(t.raw)
	}
	if len(s.operands) > 0 {
		buf.WriteByte('\n')
	}
	s.operands = nil
}

// numbers reads the last n numeric operands without altering what gets
// emitted.
func (s *scrubber) numbers(n int) ([]float64, bool) {
	return lastNumbers(s.operands, n)
}

func (s *scrubber) allNumbers() []float64 {
	var nums []float64
	for _, t := range s.operands {
		if t.kind == tokNumber {
			nums = append(nums, t.num)
		}
	}
	return nums
}

func lastNumbers(operands []token, n int) ([]float64, bool) {
	nums := make([]float64, 0, n)
	for _, t := range operands {
		if t.kind == tokNumber {
			nums = append(nums, t.num)
		}
	}
	if len(nums) < n {
		return nil, false
	}
	return nums[len(nums)-n:], true
}

// --- content stream lexer ----------------------------------------------

type tokKind int

const (
	tokNumber tokKind = iota
	tokString         // (..) literal or <..> hex
	tokName           // /Name
	tokArrayOpen
	tokArrayClose
	tokDictOpen
	tokDictClose
	tokOperator
	tokInline // whole BI .. EI inline image
)

type token struct {
	kind tokKind
	raw  []byte
	num  float64
}

func isWhite(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// lexContent tokenizes a decoded content stream. It understands just
// enough PDF syntax to keep operands attached to their operators:
// strings with nesting and escapes, hex strings, names, numbers,
// arrays, dictionaries and inline images.
func lexContent(data []byte) []token {
	var toks []token
	n := len(data)
	for i := 0; i < n; {
		c := data[i]
		switch {
		case isWhite(c):
			i++

		case c == '%':
			for i < n && data[i] != '\n' && data[i] != '\r' {
				i++
			}

		case c == '(':
			start := i
			depth := 0
			for i < n {
				switch data[i] {
				case '\\':
					i++ // skip escaped char
				case '(':
					depth++
				case ')':
					depth--
				}
				i++
				if depth == 0 {
					break
				}
			}
			toks = append(toks, token{kind: tokString, raw: data[start:i]})

		case c == '<':
			if i+1 < n && data[i+1] == '<' {
				toks = append(toks, token{kind: tokDictOpen, raw: data[i : i+2]})
				i += 2
				break
			}
			start := i
			i++
			for i < n && data[i] != '>' {
				i++
			}
			if i < n {
				i++ // consume '>'
			}
			toks = append(toks, token{kind: tokString, raw: data[start:i]})

		case c == '>':
			if i+1 < n && data[i+1] == '>' {
				toks = append(toks, token{kind: tokDictClose, raw: data[i : i+2]})
				i += 2
			} else {
				i++ // stray, skip
			}

		case c == '[':
			toks = append(toks, token{kind: tokArrayOpen, raw: data[i : i+1]})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokArrayClose, raw: data[i : i+1]})
			i++

		case c == '/':
			start := i
			i++
			for i < n && !isWhite(data[i]) && !isDelim(data[i]) {
				i++
			}
			toks = append(toks, token{kind: tokName, raw: data[start:i]})

		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			start := i
			i++
			for i < n && (data[i] == '.' || (data[i] >= '0' && data[i] <= '9')) {
				i++
			}
			raw := data[start:i]
			num, err := strconv.ParseFloat(string(raw), 64)
			if err != nil {
				toks = append(toks, token{kind: tokOperator, raw: raw})
				break
			}
			toks = append(toks, token{kind: tokNumber, raw: raw, num: num})

		default:
			start := i
			for i < n && !isWhite(data[i]) && !isDelim(data[i]) {
				i++
			}
			raw := data[start:i]
			if string(raw) == "BI" {
				end := inlineImageEnd(data, i)
				toks = append(toks, token{kind: tokInline, raw: data[start:end]})
				i = end
				break
			}
			toks = append(toks, token{kind: tokOperator, raw: raw})
		}
	}
	return toks
}

// inlineImageEnd returns the index just past the EI closing an inline
// image whose BI ended at pos.
func inlineImageEnd(data []byte, pos int) int {
	for i := pos; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		beforeOK := i == 0 || isWhite(data[i-1])
		afterOK := i+2 >= len(data) || isWhite(data[i+2]) || isDelim(data[i+2])
		if beforeOK && afterOK {
			return i + 2
		}
	}
	return len(data)
}

package callgrind

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kevleyski/kcachegrind/pkg/tracedata"
)

var (
	// ErrMalformedRecord is returned in strict mode when a record cannot
	// be parsed. Outside strict mode the record is skipped and counted.
	ErrMalformedRecord = errors.New("callgrind: malformed record")

	// ErrNoEvents is returned when cost rows appear before an events
	// header defined the column order.
	ErrNoEvents = errors.New("callgrind: cost row before events header")
)

// Parser reads callgrind trace files into a tracedata graph.
type Parser struct {
	// Logger receives skip warnings and progress; nil uses slog default.
	Logger *slog.Logger

	// Strict makes any malformed record fail the load instead of being
	// skipped.
	Strict bool

	skippedRecords int
}

// SkippedRecords returns how many malformed records were skipped over all
// loads done with this parser.
func (p *Parser) SkippedRecords() int { return p.skippedRecords }

func (p *Parser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}

	return slog.Default()
}

// LoadTrace loads all parts belonging to a trace base name into data.
func (p *Parser) LoadTrace(data *tracedata.Data, base string) ([]*tracedata.Part, error) {
	paths, err := FindParts(base)
	if err != nil {
		return nil, err
	}

	if data.TraceName() == "" {
		data.SetTraceName(base)
	}

	parts := make([]*tracedata.Part, 0, len(paths))

	for _, path := range paths {
		part, loadErr := p.LoadFile(data, path)
		if loadErr != nil {
			return parts, loadErr
		}

		parts = append(parts, part)
	}

	return parts, nil
}

// LoadFile loads one trace file into data as a new part.
func (p *Parser) LoadFile(data *tracedata.Data, path string) (*tracedata.Part, error) {
	reader, err := openTrace(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return p.Load(data, reader, path)
}

// Load reads one trace stream into data as a new part named name.
func (p *Parser) Load(data *tracedata.Data, reader io.Reader, name string) (*tracedata.Part, error) {
	state := &parseState{
		parser: p,
		data:   data,
		part:   data.AddPart(name),
	}
	state.positions.line = true

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		state.lineNumber++

		err := state.parseLine(strings.TrimRight(scanner.Text(), " \t\r"))
		if err != nil {
			return state.part, fmt.Errorf("%s:%d: %w", name, state.lineNumber, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return state.part, fmt.Errorf("callgrind: read %s: %w", name, err)
	}

	state.finish()

	return state.part, nil
}

// parseState carries the per-file cursor: the current object, file and
// function positions, the pending call target, and the last cost position
// for relative addressing.
type parseState struct {
	parser *Parser
	data   *tracedata.Data
	part   *tracedata.Part

	lineNumber int

	positions struct {
		instr bool
		line  bool
	}

	object       *tracedata.Object
	file         *tracedata.File
	sourceFile   *tracedata.File
	function     *tracedata.Function
	partFunction *tracedata.PartFunction

	calledObject   *tracedata.Object
	calledFile     *tracedata.File
	calledFunction *tracedata.Function

	pendingCallCount tracedata.SubCost
	hasPendingCall   bool

	lastLine       uint
	lastAddr       uint64
	lastCalledLine uint
	lastCalledAddr uint64

	rowTotals  tracedata.CostVector
	summaryRow string
	sawSummary bool
}

func (s *parseState) parseLine(line string) error {
	if line == "" || line[0] == '#' {
		return nil
	}

	if isCostLine(line) {
		return s.parseCostLine(line)
	}

	if key, rest, ok := strings.Cut(line, "="); ok && !strings.Contains(key, ":") {
		return s.parseAssignment(key, rest)
	}

	if key, rest, ok := strings.Cut(line, ":"); ok {
		s.parseHeader(strings.TrimSpace(key), strings.TrimSpace(rest))

		return nil
	}

	return s.skip("unrecognized line")
}

// isCostLine reports whether the line starts with a position token.
func isCostLine(line string) bool {
	ch := line[0]

	return (ch >= '0' && ch <= '9') || ch == '+' || ch == '-' || ch == '*'
}

func (s *parseState) parseHeader(key, value string) {
	switch key {
	case "version":
		s.part.SetVersion(value)
	case "creator":
		// informational only
	case "cmd":
		if s.data.Command() == "" {
			s.data.SetCommand(value)
		}
	case "part":
		if number, err := strconv.Atoi(value); err == nil {
			s.part.SetPartNumber(number)
		}
	case "pid":
		if pid, err := strconv.Atoi(value); err == nil {
			s.part.SetProcessID(pid)
		}
	case "thread":
		if tid, err := strconv.Atoi(value); err == nil {
			s.part.SetThreadID(tid)
		}
	case "trigger":
		s.part.SetTrigger(value)
	case "timeframe":
		s.part.SetTimeframe(value)
	case "desc":
		if s.part.Description() == "" {
			s.part.SetDescription(value)
		} else {
			s.part.SetDescription(s.part.Description() + "\n" + value)
		}
	case "events":
		s.part.SetSubMapping(s.data.Mapping().SubMappingFor(value))
	case "positions":
		s.positions.instr = strings.Contains(value, "instr")
		s.positions.line = strings.Contains(value, "line") || !s.positions.instr
	case "summary", "totals":
		s.summaryRow = value
		s.sawSummary = true
	default:
		// Unknown headers are allowed by the format.
	}
}

func (s *parseState) parseAssignment(key, value string) error {
	id, name := splitCompressedName(value)

	switch key {
	case "ob":
		s.object = s.data.CompressedObject(id, name)

		return nil

	case "fl", "fi", "fe":
		file := s.data.CompressedFile(id, name)

		s.sourceFile = file
		if key == "fl" {
			s.file = file
		}

		return nil

	case "fn":
		s.function = s.data.CompressedFunction(id, name, s.currentFile(), s.currentObject())
		s.partFunction = s.function.PartFunction(
			s.part,
			s.currentFile().PartFile(s.part),
			s.currentObject().PartObject(s.part),
		)
		s.lastLine = 0
		s.lastAddr = 0

		return nil

	case "cob":
		s.calledObject = s.data.CompressedObject(id, name)

		return nil

	case "cfl", "cfi":
		s.calledFile = s.data.CompressedFile(id, name)

		return nil

	case "cfn":
		s.calledFunction = s.data.CompressedFunction(id, name, s.calledTargetFile(), s.calledTargetObject())

		return nil

	case "calls":
		return s.parseCalls(value)

	case "jump", "jcnd":
		return s.parseJump(key == "jcnd", value)

	default:
		return s.skip("unknown assignment " + key)
	}
}

// currentObject returns the position object, interning the anonymous one
// when the file never declared it.
func (s *parseState) currentObject() *tracedata.Object {
	if s.object == nil {
		s.object = s.data.Object("")
	}

	return s.object
}

func (s *parseState) currentFile() *tracedata.File {
	if s.file == nil {
		s.file = s.data.File("")
	}

	return s.file
}

func (s *parseState) currentSourceFile() *tracedata.File {
	if s.sourceFile == nil {
		return s.currentFile()
	}

	return s.sourceFile
}

// calledTargetFile defaults to the callee file, then the caller's.
func (s *parseState) calledTargetFile() *tracedata.File {
	if s.calledFile != nil {
		return s.calledFile
	}

	return s.currentFile()
}

func (s *parseState) calledTargetObject() *tracedata.Object {
	if s.calledObject != nil {
		return s.calledObject
	}

	return s.currentObject()
}

// parseCalls records a pending call; the next cost line carries the call
// site position and the inclusive cost of the calls.
func (s *parseState) parseCalls(value string) error {
	fields := strings.Fields(value)
	if len(fields) == 0 || s.calledFunction == nil {
		return s.skip("calls without target")
	}

	count, _, ok := tracedata.ParseSubCost(fields[0])
	if !ok {
		return s.skip("calls without count")
	}

	targets := fields[1:]

	if s.positions.instr && len(targets) > 0 {
		addr, addrOK := parsePosition(targets[0], s.lastCalledAddr, 16)
		if addrOK {
			s.lastCalledAddr = addr
		}

		targets = targets[1:]
	}

	if s.positions.line && len(targets) > 0 {
		line, lineOK := parsePosition(targets[0], uint64(s.lastCalledLine), 10)
		if lineOK {
			s.lastCalledLine = uint(line)
		}
	}

	s.pendingCallCount = count
	s.hasPendingCall = true

	return nil
}

func (s *parseState) parseJump(conditional bool, value string) error {
	if s.function == nil {
		return s.skip("jump outside function")
	}

	fields := strings.Fields(value)
	if len(fields) < 2 {
		return s.skip("jump without target")
	}

	var executed, followed tracedata.SubCost

	if conditional {
		followedStr, executedStr, ok := strings.Cut(fields[0], "/")
		if !ok {
			return s.skip("conditional jump without counts")
		}

		var parsedOK bool

		followed, _, parsedOK = tracedata.ParseSubCost(followedStr)
		if !parsedOK {
			return s.skip("bad followed count")
		}

		executed, _, parsedOK = tracedata.ParseSubCost(executedStr)
		if !parsedOK {
			return s.skip("bad executed count")
		}
	} else {
		var parsedOK bool

		executed, _, parsedOK = tracedata.ParseSubCost(fields[0])
		if !parsedOK {
			return s.skip("bad jump count")
		}

		followed = executed
	}

	targets := fields[1:]

	targetAddr := s.lastAddr
	targetLine := s.lastLine

	if s.positions.instr && len(targets) > 0 {
		if addr, ok := parsePosition(targets[0], s.lastAddr, 16); ok {
			targetAddr = addr
		}

		targets = targets[1:]
	}

	if s.positions.line && len(targets) > 0 {
		if line, ok := parsePosition(targets[0], uint64(s.lastLine), 10); ok {
			targetLine = uint(line)
		}
	}

	if s.positions.line {
		from := s.function.Line(s.currentSourceFile(), s.lastLine, true)
		to := s.function.Line(s.currentSourceFile(), targetLine, true)

		lineJump := from.LineJump(to, conditional)
		partJump := lineJump.PartLineJump(s.part)
		partJump.AddExecutedCount(executed)
		partJump.AddFollowedCount(followed)
	}

	if s.positions.instr {
		from := s.function.Instr(s.lastAddr, true)
		to := s.function.Instr(targetAddr, true)

		instrJump := from.InstrJump(to, conditional)
		partJump := instrJump.PartInstrJump(s.part)
		partJump.AddExecutedCount(executed)
		partJump.AddFollowedCount(followed)
	}

	record := s.data.FixPool().AllocJump(s.part, s.lastLine, s.lastAddr, targetLine, targetAddr, executed, followed)
	if record != nil && s.partFunction != nil {
		record.SetNext(s.partFunction.FirstFixJump())
		s.partFunction.SetFirstFixJump(record)
	}

	return nil
}

func (s *parseState) parseCostLine(line string) error {
	if s.part.SubMapping() == nil {
		if s.parser.Strict {
			return ErrNoEvents
		}

		return s.skip("cost row before events header")
	}

	if s.function == nil || s.partFunction == nil {
		return s.skip("cost row outside function")
	}

	rest := line

	if s.positions.instr {
		token, remainder := nextField(rest)

		addr, ok := parsePosition(token, s.lastAddr, 16)
		if !ok {
			return s.skip("bad instruction position")
		}

		s.lastAddr = addr
		rest = remainder
	}

	if s.positions.line {
		token, remainder := nextField(rest)

		lineno, ok := parsePosition(token, uint64(s.lastLine), 10)
		if !ok {
			return s.skip("bad line position")
		}

		s.lastLine = uint(lineno)
		rest = remainder
	}

	if s.hasPendingCall {
		return s.finishCall(rest)
	}

	sourceLine := s.function.Line(s.currentSourceFile(), s.lastLine, true)
	partLine := sourceLine.PartLine(s.part, s.partFunction)
	partLine.AddRow(s.part.SubMapping(), rest)

	if s.positions.instr {
		instr := s.function.Instr(s.lastAddr, true)
		instr.SetLine(sourceLine)

		partInstr := instr.PartInstr(s.part, s.partFunction)
		partInstr.AddRow(s.part.SubMapping(), rest)
	}

	record := s.data.FixPool().AllocCost(s.part, s.lastLine, s.lastAddr, rest)
	if record != nil {
		record.SetNext(s.partFunction.FirstFixCost())
		s.partFunction.SetFirstFixCost(record)
	}

	s.rowTotals.AddRow(s.part.SubMapping(), rest)

	return nil
}

// finishCall attaches the pending call with the cost row at the call site.
func (s *parseState) finishCall(row string) error {
	s.hasPendingCall = false

	defer func() {
		s.calledObject = nil
		s.calledFile = nil
		s.calledFunction = nil
	}()

	if s.calledFunction == nil {
		return s.skip("call cost without target function")
	}

	calledPart := s.calledFunction.PartFunction(
		s.part,
		s.calledTargetFile().PartFile(s.part),
		s.calledTargetObject().PartObject(s.part),
	)

	call := s.function.Calling(s.calledFunction)
	partCall := call.PartCall(s.part, s.partFunction, calledPart)

	sourceLine := s.function.Line(s.currentSourceFile(), s.lastLine, true)
	lineCall := call.LineCall(sourceLine)
	partLineCall := lineCall.PartLineCall(s.part, partCall)
	partLineCall.AddRow(s.part.SubMapping(), row)
	partLineCall.AddCallCount(s.pendingCallCount)

	if s.positions.instr {
		instr := s.function.Instr(s.lastAddr, true)
		instrCall := call.InstrCall(instr)
		partInstrCall := instrCall.PartInstrCall(s.part)
		partInstrCall.AddRow(s.part.SubMapping(), row)
		partInstrCall.AddCallCount(s.pendingCallCount)
	}

	record := s.data.FixPool().AllocCallCost(s.part, s.lastLine, s.lastAddr, s.pendingCallCount, row)
	if record != nil {
		record.SetNext(partCall.FirstFixCallCost())
		partCall.SetFirstFixCallCost(record)
	}

	return nil
}

// finish settles the part totals: an explicit summary wins over the sum of
// cost rows.
func (s *parseState) finish() {
	if s.sawSummary {
		s.part.AddTotals(s.summaryRow)
	} else {
		s.part.AddTotalsVector(&s.rowTotals)
	}

	s.data.AddTotalsVector(s.part.Totals())
}

// skip drops a malformed record, or fails the load in strict mode.
func (s *parseState) skip(reason string) error {
	if s.parser.Strict {
		return fmt.Errorf("%w: %s", ErrMalformedRecord, reason)
	}

	s.parser.skippedRecords++
	s.parser.logger().Debug("skipping trace record",
		"line", s.lineNumber,
		"reason", reason,
	)

	return nil
}

// splitCompressedName splits "(id) name", "(id)" or "name" forms.
// The id is -1 when absent.
func splitCompressedName(value string) (int, string) {
	value = strings.TrimSpace(value)

	if !strings.HasPrefix(value, "(") {
		return -1, value
	}

	closing := strings.IndexByte(value, ')')
	if closing < 0 {
		return -1, value
	}

	id, err := strconv.Atoi(value[1:closing])
	if err != nil {
		return -1, value
	}

	return id, strings.TrimSpace(value[closing+1:])
}

// nextField splits the first whitespace-separated token off a line.
func nextField(line string) (string, string) {
	line = strings.TrimLeft(line, " \t")

	end := strings.IndexAny(line, " \t")
	if end < 0 {
		return line, ""
	}

	return line[:end], line[end+1:]
}

// parsePosition parses an absolute position in the given base, "0x" hex,
// or a position relative to last: "+N", "-N" or "*".
func parsePosition(token string, last uint64, base int) (uint64, bool) {
	switch {
	case token == "":
		return 0, false

	case token == "*":
		return last, true

	case token[0] == '+':
		offset, err := strconv.ParseUint(token[1:], base, 64)
		if err != nil {
			return 0, false
		}

		return last + offset, true

	case token[0] == '-':
		offset, err := strconv.ParseUint(token[1:], base, 64)
		if err != nil {
			return 0, false
		}

		if offset > last {
			return 0, false
		}

		return last - offset, true

	case strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X"):
		value, err := strconv.ParseUint(token[2:], 16, 64)
		if err != nil {
			return 0, false
		}

		return value, true

	default:
		value, err := strconv.ParseUint(token, base, 64)
		if err != nil {
			return 0, false
		}

		return value, true
	}
}

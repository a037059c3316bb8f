package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/setpoint/pkg/domain"
)

const (
	fieldSep    = ";"
	holdToken   = "hold"
	commentMark = "#"
)

// Parser is responsible for converting raw recipe records into Segments.
// It is configured once per device, since the accepted grammar depends on
// the device capabilities.
type Parser struct {
	caps domain.Capabilities
}

// NewParser creates a parser for a device with the given capabilities.
func NewParser(caps domain.Capabilities) *Parser {
	if caps == nil {
		caps = domain.Profile{}
	}
	return &Parser{caps: caps}
}

// ParseRecipe parses every record and applies the first-record rule: when the
// first segment is a ramp, a zero-duration jump to baseline is inserted in
// front of it. A nil baseline makes a leading ramp fail with
// ErrNoBaselineMeasurement.
func (p *Parser) ParseRecipe(records []string, baseline *float64) ([]domain.Segment, error) {
	segments := make([]domain.Segment, 0, len(records)+1)
	for i, raw := range records {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentMark) {
			continue
		}
		seg, err := p.ParseRecord(i, line)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 || !segments[0].IsRamp() {
		return segments, nil
	}

	first := segments[0]
	if baseline == nil {
		return nil, &domain.ParseError{Record: first.Record, Err: domain.ErrNoBaselineMeasurement}
	}
	lead := domain.Segment{
		Kind:      domain.KindJump,
		Record:    first.Record,
		Value:     *baseline,
		Direction: first.Direction,
		Synthetic: true,
	}
	return append([]domain.Segment{lead}, segments...), nil
}

// ParseRecord parses one record of the form "duration;value;kind[;extra...]".
func (p *Parser) ParseRecord(index int, line string) (domain.Segment, error) {
	fields := splitFields(line)
	if len(fields) < 3 {
		return domain.Segment{}, &domain.ParseError{Record: index, Token: line, Err: domain.ErrMalformedRecord}
	}

	duration, err := parseSeconds(fields[0])
	if err != nil || duration <= 0 {
		return domain.Segment{}, &domain.ParseError{Record: index, Token: fields[0], Err: domain.ErrMalformedRecord}
	}
	value, err := parseNumber(fields[1])
	if err != nil {
		return domain.Segment{}, &domain.ParseError{Record: index, Token: fields[1], Err: domain.ErrMalformedRecord}
	}

	seg := domain.Segment{
		Kind:     domain.SegmentKind(strings.ToLower(fields[2])),
		Record:   index,
		Value:    value,
		Duration: duration,
	}
	extra := fields[3:]

	switch seg.Kind {
	case domain.KindJump:
		if p.caps.DirectionOnly() {
			if err := p.takeDirection(&seg, extra, 0); err != nil {
				return domain.Segment{}, err
			}
		}

	case domain.KindRamp:
		periodAt := 0
		if p.caps.DirectionOnly() {
			if err := p.takeDirection(&seg, extra, 0); err != nil {
				return domain.Segment{}, err
			}
			periodAt = 1
		}
		if seg.StepPeriod, err = p.takeSeconds(index, extra, periodAt); err != nil {
			return domain.Segment{}, err
		}

	case domain.KindNativeRamp:
		if p.caps.DirectionOnly() || !p.caps.SupportsNativeRamp() {
			return domain.Segment{}, unsupported(index, fields[2])
		}

	case domain.KindPowerJump:
		if p.caps.DirectionOnly() || !p.caps.SupportsSecondary() {
			return domain.Segment{}, unsupported(index, fields[2])
		}
		if len(extra) < 1 {
			return domain.Segment{}, &domain.ParseError{Record: index, Token: line, Err: domain.ErrMalformedRecord}
		}
		if strings.EqualFold(extra[0], holdToken) {
			seg.HoldAux = true
		} else if seg.Aux, err = parseNumber(extra[0]); err != nil {
			return domain.Segment{}, &domain.ParseError{Record: index, Token: extra[0], Err: domain.ErrMalformedRecord}
		}

	case domain.KindPowerRamp:
		if p.caps.DirectionOnly() || !p.caps.SupportsSecondary() {
			return domain.Segment{}, unsupported(index, fields[2])
		}
		if seg.StepPeriod, err = p.takeSeconds(index, extra, 0); err != nil {
			return domain.Segment{}, err
		}
		if len(extra) > 1 {
			start, err := parseNumber(extra[1])
			if err != nil {
				return domain.Segment{}, &domain.ParseError{Record: index, Token: extra[1], Err: domain.ErrMalformedRecord}
			}
			seg.AuxStart = &start
		}

	default:
		return domain.Segment{}, &domain.ParseError{Record: index, Token: fields[2], Err: domain.ErrUnknownSegmentKind}
	}

	return seg, nil
}

func (p *Parser) takeDirection(seg *domain.Segment, extra []string, at int) error {
	if at >= len(extra) {
		return &domain.ParseError{Record: seg.Record, Err: domain.ErrMissingDirection}
	}
	dir, ok := domain.ParseDirection(extra[at])
	if !ok {
		return &domain.ParseError{Record: seg.Record, Token: extra[at], Err: domain.ErrMissingDirection}
	}
	seg.Direction = &dir
	return nil
}

func (p *Parser) takeSeconds(index int, extra []string, at int) (time.Duration, error) {
	if at >= len(extra) {
		return 0, &domain.ParseError{Record: index, Err: domain.ErrInvalidStepPeriod}
	}
	d, err := parseSeconds(extra[at])
	if err != nil {
		return 0, &domain.ParseError{Record: index, Token: extra[at], Err: domain.ErrMalformedRecord}
	}
	return d, nil
}

func unsupported(index int, kind string) error {
	return &domain.ParseError{Record: index, Token: kind, Err: domain.ErrUnsupportedSegmentKind}
}

// splitFields splits on ';', trims every field and drops trailing empty fields
// left by a terminating separator.
func splitFields(line string) []string {
	fields := strings.Split(line, fieldSep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// parseNumber accepts both ',' and '.' as decimal separator.
func parseNumber(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(field), ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", field)
	}
	return v, nil
}

func parseSeconds(field string) (time.Duration, error) {
	sec, err := parseNumber(field)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec * float64(time.Second)), nil
}

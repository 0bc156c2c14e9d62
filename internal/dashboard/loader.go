package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusportal/portal/internal/api"
	"campusportal/portal/internal/role"
)

const (
	SourceConsolidated = "consolidated"
	SourceAssembled    = "assembled"
)

type Fetcher interface {
	GetRaw(ctx context.Context, token, endpoint string) (json.RawMessage, error)
}

// Payload is the dashboard model. Placeholders lists the fields that carry
// placeholder data instead of a backend value.
type Payload struct {
	Source       string                     `json:"source"`
	Fields       map[string]json.RawMessage `json:"data"`
	Placeholders []string                   `json:"placeholders,omitempty"`
}

// part is one backend call of a plan. A part with subfields is split into
// several payload fields, each defaulted on its own.
type part struct {
	field     string
	endpoint  string
	subfields []string
}

var (
	studentPlan = []part{
		{field: FieldAttendanceSummary, endpoint: api.EndpointAttendanceSummary},
		{field: FieldPerformance, endpoint: api.EndpointPerformance},
		{field: FieldTimetableToday, endpoint: api.EndpointTimetableToday},
		{field: FieldAnnouncements, endpoint: api.EndpointAnnouncements},
		{field: FieldAssignments, endpoint: api.EndpointAssignments},
		{field: FieldFees, endpoint: api.EndpointFees},
		{field: FieldLibrary, endpoint: api.EndpointLibrary},
	}
	teachingPlan = []part{
		{field: FieldClassSummary, endpoint: api.EndpointClassSummary},
		{field: FieldAssignments, endpoint: api.EndpointAssignments},
		{field: FieldAnnouncements, endpoint: api.EndpointAnnouncements},
	}
	adminPlan = []part{
		{endpoint: api.EndpointStatsSummary, subfields: []string{FieldClassSummary, FieldStaffCount, FieldCourseCount, FieldActiveUsers}},
		{field: FieldAnnouncements, endpoint: api.EndpointAnnouncements},
	}
	defaultPlan = []part{
		{field: FieldAnnouncements, endpoint: api.EndpointAnnouncements},
	}
)

func planFor(r role.Role) []part {
	switch r {
	case role.Student:
		return studentPlan
	case role.Staff, role.CA, role.HOD:
		return teachingPlan
	case role.Admin, role.Principal:
		return adminPlan
	default:
		return defaultPlan
	}
}

type Loader struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

func NewLoader(fetcher Fetcher, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fetcher: fetcher, logger: logger, now: time.Now}
}

// Load builds the dashboard for r. It never fails because of a backend error;
// only a cancelled context aborts it.
func (l *Loader) Load(ctx context.Context, r role.Role, token string) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := l.fetcher.GetRaw(ctx, token, api.EndpointDashboard)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		if fields, ok := nonEmptyObject(raw); ok {
			return &Payload{Source: SourceConsolidated, Fields: fields}, nil
		}
	} else {
		l.logger.Debug("dashboard consolidated fetch failed", zap.Error(err))
	}

	plan := planFor(r)
	results := make([]json.RawMessage, len(plan))
	var g errgroup.Group
	for i, p := range plan {
		i, p := i, p
		g.Go(func() error {
			body, err := l.fetcher.GetRaw(ctx, token, p.endpoint)
			if err != nil {
				l.logger.Debug("dashboard part fetch failed", zap.String("endpoint", p.endpoint), zap.Error(err))
				return nil
			}
			results[i] = body
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := &Payload{Source: SourceAssembled, Fields: make(map[string]json.RawMessage)}
	now := l.now()
	for i, p := range plan {
		if len(p.subfields) == 0 {
			l.fill(payload, p.field, results[i], present(results[i]), now)
			continue
		}
		obj, _ := nonEmptyObject(results[i])
		for _, sub := range p.subfields {
			l.fill(payload, sub, obj[sub], truthy(obj[sub]), now)
		}
	}
	return payload, nil
}

func (l *Loader) fill(p *Payload, field string, value json.RawMessage, ok bool, now time.Time) {
	if ok {
		p.Fields[field] = value
		return
	}
	data, err := json.Marshal(placeholders[field](now))
	if err != nil {
		l.logger.Error("dashboard_placeholder", zap.String("field", field), zap.Error(err))
		data = json.RawMessage("null")
	}
	p.Fields[field] = data
	p.Placeholders = append(p.Placeholders, field)
	l.logger.Info("dashboard_fallback", zap.String("field", field))
}

func nonEmptyObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

// present is false for a missing or null body.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// truthy additionally rejects false, zero and the empty string.
func truthy(raw json.RawMessage) bool {
	if !present(raw) {
		return false
	}
	switch string(bytes.TrimSpace(raw)) {
	case "false", "0", `""`:
		return false
	}
	return true
}

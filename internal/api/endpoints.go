package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Endpoint templates, also used as metric labels.
const (
	EndpointLogin             = "/login"
	EndpointCaptcha           = "/captcha"
	EndpointStatus            = "/status"
	EndpointProfile           = "/profile"
	EndpointDashboard         = "/dashboard"
	EndpointStudentAttendance = "/attendance/student/:rollNo"
	EndpointAttendanceSummary = "/attendance/summary"
	EndpointPerformance       = "/performance"
	EndpointTimetableToday    = "/timetable/today"
	EndpointAnnouncements     = "/announcements"
	EndpointAssignments       = "/assignments"
	EndpointFees              = "/fees"
	EndpointLibrary           = "/library"
	EndpointClassSummary      = "/class/summary"
	EndpointStatsSummary      = "/stats/summary"
	EndpointClasses           = "/classes"
	EndpointClassStudents     = "/classes/:id/students"
	EndpointStudents          = "/students"
	EndpointUpdateStudent     = "/student/:id"
	EndpointFeesAnalytics     = "/fees/analytics"
	EndpointFeesHistory       = "/fees/history/:regNo"
	EndpointFeesPayment       = "/fees/payment/:regNo"
	EndpointMessHistory       = "/mess/history"
	EndpointMessRange         = "/mess/range"
	EndpointMessSave          = "/mess/save"
	EndpointMessPayment       = "/mess/payment"
	EndpointMessPayments      = "/mess/payment/history"
	EndpointMessNextStart     = "/mess/payment/next-start"
)

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CaptchaID   string `json:"captchaId"`
	CaptchaText string `json:"captchaText"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

type CaptchaResponse struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type AttendanceRecord struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type TimetableEntry struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	Room      string `json:"room"`
}

type FeeRecord struct {
	AmountPaid    float64    `json:"amount_paid"`
	Balance       float64    `json:"balance"`
	PaymentStatus string     `json:"payment_status"`
	Remarks       string     `json:"remarks"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type FeesFilter struct {
	DeptID  string
	Year    string
	FeeType string
}

type UpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: EndpointLogin, path: EndpointLogin, body: req}, &resp)
	return resp, err
}

func (c *Client) Captcha(ctx context.Context) (CaptchaResponse, error) {
	var resp CaptchaResponse
	err := c.do(ctx, call{method: http.MethodGet, endpoint: EndpointCaptcha, path: EndpointCaptcha}, &resp)
	return resp, err
}

// Status probes backend liveness; any 2xx is healthy.
func (c *Client) Status(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodGet, endpoint: EndpointStatus, path: EndpointStatus}, nil)
}

func (c *Client) Profile(ctx context.Context, token string) (json.RawMessage, error) {
	return c.GetRaw(ctx, token, EndpointProfile)
}

func (c *Client) StudentAttendance(ctx context.Context, token, rollNo string) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointStudentAttendance,
		path:     "/attendance/student/" + url.PathEscape(rollNo),
		token:    token,
	}, &records)
	return records, err
}

// TimetableToday accepts either a bare list or an object with a "today" list.
func (c *Client) TimetableToday(ctx context.Context, token string) ([]TimetableEntry, error) {
	raw, err := c.GetRaw(ctx, token, EndpointTimetableToday)
	if err != nil {
		return nil, err
	}
	return DecodeTimetable(raw)
}

// DecodeTimetable reads today's entries from either supported response shape.
func DecodeTimetable(raw json.RawMessage) ([]TimetableEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var entries []TimetableEntry
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &FetchError{Endpoint: EndpointTimetableToday, Status: http.StatusOK, Err: err}
		}
		return entries, nil
	}
	var wrapped struct {
		Today []TimetableEntry `json:"today"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &FetchError{Endpoint: EndpointTimetableToday, Status: http.StatusOK, Err: err}
	}
	return wrapped.Today, nil
}

func (c *Client) Fees(ctx context.Context, token string) (FeeRecord, error) {
	var fees FeeRecord
	err := c.do(ctx, call{method: http.MethodGet, endpoint: EndpointFees, path: EndpointFees, token: token}, &fees)
	return fees, err
}

func (c *Client) FeesHistory(ctx context.Context, token, regNo string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointFeesHistory,
		path:     "/fees/history/" + url.PathEscape(regNo),
		token:    token,
	}, &raw)
	return raw, err
}

func (c *Client) AddFeePayment(ctx context.Context, token, regNo string, amount float64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: EndpointFeesPayment,
		path:     "/fees/payment/" + url.PathEscape(regNo),
		token:    token,
		body:     map[string]float64{"amount": amount},
	}, nil)
}

// FeesAnalytics returns the "data" member of the analytics response, or null.
func (c *Client) FeesAnalytics(ctx context.Context, token string, filter FeesFilter) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("dept_id", filter.DeptID)
	query.Set("year", filter.Year)
	query.Set("fee_type", filter.FeeType)
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointFeesAnalytics,
		path:     EndpointFeesAnalytics + "?" + query.Encode(),
		token:    token,
	}, &resp)
	return resp.Data, err
}

func (c *Client) Classes(ctx context.Context, token string) (json.RawMessage, error) {
	return c.GetRaw(ctx, token, EndpointClasses)
}

func (c *Client) ClassStudents(ctx context.Context, token, classID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointClassStudents,
		path:     "/classes/" + url.PathEscape(classID) + "/students",
		token:    token,
	}, &raw)
	return raw, err
}

func (c *Client) Students(ctx context.Context, token string) (json.RawMessage, error) {
	return c.GetRaw(ctx, token, EndpointStudents)
}

func (c *Client) UpdateStudent(ctx context.Context, token, studentID string, fields map[string]interface{}) (UpdateResult, error) {
	var result UpdateResult
	err := c.do(ctx, call{
		method:   http.MethodPut,
		endpoint: EndpointUpdateStudent,
		path:     "/student/" + url.PathEscape(studentID),
		token:    token,
		body:     fields,
	}, &result)
	return result, err
}

func (c *Client) MessRange(ctx context.Context, token, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)
	var raw json.RawMessage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointMessRange,
		path:     EndpointMessRange + "?" + query.Encode(),
		token:    token,
	}, &raw)
	return raw, err
}

// MessSave and MessPayment forward the form body unchanged.
func (c *Client) MessSave(ctx context.Context, token string, body map[string]interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{method: http.MethodPost, endpoint: EndpointMessSave, path: EndpointMessSave, token: token, body: body}, &raw)
	return raw, err
}

func (c *Client) MessPayment(ctx context.Context, token string, body map[string]interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{method: http.MethodPost, endpoint: EndpointMessPayment, path: EndpointMessPayment, token: token, body: body}, &raw)
	return raw, err
}

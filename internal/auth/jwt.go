package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token does not have three segments or its
// payload segment is not a JSON object.
var ErrMalformedToken = errors.New("malformed_token")

// Claims is the identity carried in the backend token payload.
type Claims struct {
	UserID          Flex   `json:"user_id,omitempty"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	RegNo           Flex   `json:"regNo,omitempty"`
	RollNo          Flex   `json:"roll_no,omitempty"`
	EmployeeID      Flex   `json:"employeeId,omitempty"`
	DeptID          Flex   `json:"dept_id,omitempty"`
	ClassID         Flex   `json:"class_id,omitempty"`
	AssignedClassID Flex   `json:"assigned_class_id,omitempty"`
	jwt.RegisteredClaims

	// Extra holds payload members the portal does not model. They are kept so a
	// persisted session carries the whole decoded payload.
	Extra map[string]json.RawMessage `json:"-"`
}

// claimsFields has the Claims layout without its JSON methods.
type claimsFields Claims

var knownClaims = map[string]struct{}{
	"user_id": {}, "name": {}, "email": {}, "role": {},
	"regNo": {}, "roll_no": {}, "employeeId": {},
	"dept_id": {}, "class_id": {}, "assigned_class_id": {},
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	var fields claimsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	fields.Extra = nil
	for key, value := range all {
		if _, ok := knownClaims[key]; ok {
			continue
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]json.RawMessage)
		}
		fields.Extra[key] = value
	}
	*c = Claims(fields)
	return nil
}

func (c Claims) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(claimsFields(c))
	if err != nil || len(c.Extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, value := range c.Extra {
		if _, ok := all[key]; !ok {
			all[key] = value
		}
	}
	return json.Marshal(all)
}

// Identifier returns the registration number for students and the employee id otherwise.
func (c Claims) Identifier() string {
	switch {
	case c.RegNo != "":
		return c.RegNo.String()
	case c.RollNo != "":
		return c.RollNo.String()
	default:
		return c.EmployeeID.String()
	}
}

// RollNumber is the key of the per-student attendance endpoint. The
// registration number is only used when the token carries no roll number.
func (c Claims) RollNumber() string {
	if c.RollNo != "" {
		return c.RollNo.String()
	}
	return c.RegNo.String()
}

// Decode reads the claims from the payload segment of a compact token.
//
// The signature is NOT verified. Authorization is enforced by the backend on
// every request; the client only needs the identity to drive navigation.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Encode signs claims with HS256. The portal never issues tokens for the backend;
// this is used to build fixtures and fake backends.
func Encode(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Flex holds an identifier the backend sends either as a JSON string or a number.
type Flex string

func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex id: %w", err)
	}
	*f = Flex(n.String())
	return nil
}

func (f Flex) String() string {
	return string(f)
}

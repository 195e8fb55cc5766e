package util

import (
	"net/http"
	"testing"
	"time"

	"github.com/ayilmaz/meetspot/util/values"
)

func TestStatusCode(t *testing.T) {
	testCases := []struct {
		name     string
		status   string
		expected int
	}{
		{"Success", values.Success, http.StatusOK},
		{"Created", values.Created, http.StatusCreated},
		{"Bad Request Body", values.BadRequestBody, http.StatusBadRequest},
		{"Conflict", values.Conflict, http.StatusBadRequest},
		{"Not Allowed", values.NotAllowed, http.StatusForbidden},
		{"Not Found", values.NotFound, http.StatusNotFound},
		{"Not Authorised", values.NotAuthorised, http.StatusUnauthorized},
		{"Token Expired", values.TokenExpired, http.StatusUnauthorized},
		{"Error", values.Error, http.StatusInternalServerError},
		{"Unknown defaults to OK", "anything-else", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusCode(tc.status); got != tc.expected {
				t.Errorf("StatusCode(%q) = %d; want %d", tc.status, got, tc.expected)
			}
		})
	}
}

func TestParseMeetingDate(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"RFC3339", "2025-04-05T14:30:45Z", false},
		{"RFC3339 with offset", "2025-04-05T14:30:45+03:00", false},
		{"No zone", "2025-04-05T14:30:45", false},
		{"Garbage", "not-a-date", true},
		{"Empty", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMeetingDate(tc.value)
			if (err != nil) != tc.wantErr {
				t.Errorf("ParseMeetingDate(%q) error = %v; wantErr %v", tc.value, err, tc.wantErr)
			}
		})
	}

	parsed, err := ParseMeetingDate("2025-04-05T14:30:45Z")
	if err != nil {
		t.Fatalf("ParseMeetingDate returned error %v", err)
	}
	want := time.Date(2025, 4, 5, 14, 30, 45, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Errorf("ParseMeetingDate = %v; want %v", parsed, want)
	}
}

func TestIsEmail(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected bool
	}{
		{"Plain address", "deniz@example.com", true},
		{"Subdomain", "d.yilmaz@mail.example.co", true},
		{"Missing domain", "deniz@", false},
		{"Missing local part", "@example.com", false},
		{"Empty", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEmail(tc.value); got != tc.expected {
				t.Errorf("IsEmail(%q) = %v; want %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	if NotBlank("   ") {
		t.Error("NotBlank(whitespace) = true; want false")
	}
	if !NotBlank(" hi ") {
		t.Error("NotBlank(\" hi \") = false; want true")
	}
}

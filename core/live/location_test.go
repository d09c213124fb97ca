package live

import "testing"

func TestIdentityFromLocation(t *testing.T) {
	testCases := []struct {
		name     string
		location string
		expected identity
	}{
		{name: "query", location: "https://app.example/?session_id=s1&user_id=u1", expected: identity{userID: "u1", sessionID: "s1"}},
		{name: "camel query", location: "https://app.example/?sessionId=s2", expected: identity{sessionID: "s2"}},
		{name: "project fallback", location: "https://app.example/?project_id=p1", expected: identity{sessionID: "p1", projectID: "p1"}},
		{name: "path", location: "https://app.example/app/sessions/s3/view", expected: identity{sessionID: "s3"}},
		{name: "query wins over path", location: "https://app.example/sessions/s4?session_id=s5", expected: identity{sessionID: "s5"}},
		{name: "empty", location: "", expected: identity{}},
		{name: "nothing", location: "https://app.example/", expected: identity{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := identityFromLocation(testCase.location); got != testCase.expected {
				t.Fatalf("expected %+v, got %+v", testCase.expected, got)
			}
		})
	}
}

func TestIdentityResolve(t *testing.T) {
	resolved := identity{sessionID: "explicit"}.resolve(identity{userID: "u1", sessionID: "fallback", projectID: "p1"})
	expected := identity{userID: "u1", sessionID: "explicit", projectID: "p1"}
	if resolved != expected {
		t.Fatalf("expected %+v, got %+v", expected, resolved)
	}

	generated := identity{}.resolve(identity{})
	if generated.userID == "" {
		t.Fatalf("expected generated user id")
	}
}

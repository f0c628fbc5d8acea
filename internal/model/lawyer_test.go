package model

import (
	"encoding/json"
	"testing"
)

func TestLawyerProfileSubjectField(t *testing.T) {
	b, err := json.Marshal(LawyerProfile{Subject: "user_1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(fields["subject"]) != `"user_1"` {
		t.Errorf("subject = %s, want \"user_1\"", fields["subject"])
	}
	if _, ok := fields["clerkId"]; ok {
		t.Error("profile should not expose clerkId")
	}
}

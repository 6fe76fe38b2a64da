package response

import "testing"

func TestResponseClassification(t *testing.T) {
	tests := []struct {
		name            string
		resp            Response
		success         bool
		continuation    bool
		informational   bool
		errorResp       bool
	}{
		{"group selected", Response{Code: 211, Message: "selected"}, true, false, false, false},
		{"send article", Response{Code: 340, Message: "send it"}, false, true, false, false},
		{"capabilities", Response{Code: 101, Message: "capabilities follow"}, false, false, true, false},
		{"no such group", Response{Code: 411, Message: "no such group"}, false, false, false, true},
		{"syntax error", Response{Code: 501, Message: "syntax error"}, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
			if got := tt.resp.IsContinuation(); got != tt.continuation {
				t.Errorf("IsContinuation() = %v, want %v", got, tt.continuation)
			}
			if got := tt.resp.IsInformational(); got != tt.informational {
				t.Errorf("IsInformational() = %v, want %v", got, tt.informational)
			}
			if got := tt.resp.IsError(); got != tt.errorResp {
				t.Errorf("IsError() = %v, want %v", got, tt.errorResp)
			}
		})
	}
}

func TestResponseLines(t *testing.T) {
	r := Response{Code: 224, Message: "overview follows", Lines: []string{"1\tSubject\tFrom"}}
	if len(r.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(r.Lines))
	}
	if r.Lines[0] != "1\tSubject\tFrom" {
		t.Errorf("Lines[0] = %q", r.Lines[0])
	}
}

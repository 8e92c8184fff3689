// Last.fm Recommender - Collaborative Filtering for Implicit Feedback
// Copyright 2026 alabarga
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alabarga/last-fm-recommender-system

package validation

import (
	"strings"
	"sync"
	"testing"
)

type recordInput struct {
	UserID string  `json:"user_id" validate:"identifier"`
	ItemID string  `json:"item_id" validate:"identifier"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

type queryInput struct {
	N    int    `query:"n" validate:"gte=0,lte=500"`
	Mode string `query:"mode" validate:"omitempty,oneof=item user"`
	Name string `validate:"omitempty,min=2,max=4"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      interface{}
		wantFields []string
		wantMsg    string
	}{
		{
			name:  "valid record",
			input: &recordInput{UserID: "u1", ItemID: "radiohead", Weight: 12},
		},
		{
			name:       "blank user",
			input:      &recordInput{UserID: "   ", ItemID: "a", Weight: 1},
			wantFields: []string{"user_id"},
			wantMsg:    "user_id must not be blank",
		},
		{
			name:       "negative weight",
			input:      &recordInput{UserID: "u1", ItemID: "a", Weight: -1},
			wantFields: []string{"weight"},
			wantMsg:    "weight must be greater than or equal to 0",
		},
		{
			name:       "multiple failures",
			input:      &recordInput{Weight: -1},
			wantFields: []string{"user_id", "item_id", "weight"},
		},
		{
			name:       "n above limit",
			input:      &queryInput{N: 501},
			wantFields: []string{"n"},
			wantMsg:    "n must be less than or equal to 500",
		},
		{
			name:       "unknown mode",
			input:      &queryInput{Mode: "hybrid"},
			wantFields: []string{"mode"},
			wantMsg:    "mode must be one of: item user",
		},
		{
			name:       "string too short",
			input:      &queryInput{Name: "x"},
			wantFields: []string{"Name"},
			wantMsg:    "Name must be at least 2 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("got %d field errors %v, want %v", len(verr.Fields), verr.Fields, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if verr.Fields[i].Field != f {
					t.Errorf("field %d = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
			if tt.wantMsg != "" && verr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_Details(t *testing.T) {
	single := ValidateStruct(&queryInput{N: -1})
	if single == nil {
		t.Fatal("expected error")
	}
	if single.Details()["field"] != "n" {
		t.Errorf("Details() = %v, want field n", single.Details())
	}

	multi := ValidateStruct(&recordInput{Weight: -1})
	if multi == nil {
		t.Fatal("expected error")
	}
	fields, ok := multi.Details()["fields"].([]FieldError)
	if !ok || len(fields) != 3 {
		t.Errorf("Details() = %v, want 3 fields", multi.Details())
	}
	if !strings.Contains(multi.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", multi.Error())
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	verr := ValidateStruct(42)
	if verr == nil || verr.Fields[0].Field != "unknown" {
		t.Errorf("ValidateStruct(42) = %v, want unknown field error", verr)
	}
}

func TestGetValidator_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if GetValidator() == nil {
				t.Error("GetValidator() returned nil")
			}
			_ = ValidateStruct(&recordInput{UserID: "u", ItemID: "i"})
		}()
	}
	wg.Wait()
}

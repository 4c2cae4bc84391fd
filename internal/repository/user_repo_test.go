package repository

import (
	"testing"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

func TestGuardMutable(t *testing.T) {
	cases := []struct {
		name string
		user *model.User
		want error
	}{
		{"missing account", nil, ErrNotFound},
		{"admin account protected", &model.User{UserID: "admin", IsAdmin: true, IsActive: true}, ErrProtectedUser},
		{"disabled admin still protected", &model.User{UserID: "admin2", IsAdmin: true, IsActive: false}, ErrProtectedUser},
		{"operator mutable", &model.User{UserID: "op1", AssignedStage: model.StageFQC, IsActive: true}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GuardMutable(tc.user); got != tc.want {
				t.Errorf("GuardMutable = %v, want %v", got, tc.want)
			}
		})
	}
}

package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsync/fieldsync/internal/token"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		action  Action
		role    string
		want    Status
		wantErr error
	}{
		{
			name:   "technician starts assigned job",
			from:   StatusAssigned,
			action: ActionStart,
			role:   token.RoleTechnician,
			want:   StatusInProgress,
		},
		{
			name:   "technician completes in-progress job",
			from:   StatusInProgress,
			action: ActionComplete,
			role:   token.RoleTechnician,
			want:   StatusCompleted,
		},
		{
			name:   "backend assigns pending job",
			from:   StatusPending,
			action: ActionAssign,
			role:   RoleBackend,
			want:   StatusAssigned,
		},
		{
			name:   "backend cancels pending job",
			from:   StatusPending,
			action: ActionCancel,
			role:   RoleBackend,
			want:   StatusCancelled,
		},
		{
			name:   "backend cancels assigned job",
			from:   StatusAssigned,
			action: ActionCancel,
			role:   RoleBackend,
			want:   StatusCancelled,
		},
		{
			name:    "starting a pending job is invalid",
			from:    StatusPending,
			action:  ActionStart,
			role:    token.RoleTechnician,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "starting an in-progress job is invalid",
			from:    StatusInProgress,
			action:  ActionStart,
			role:    token.RoleTechnician,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "completing an assigned job is invalid",
			from:    StatusAssigned,
			action:  ActionComplete,
			role:    token.RoleTechnician,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "completed jobs are terminal",
			from:    StatusCompleted,
			action:  ActionStart,
			role:    token.RoleTechnician,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "cancelled jobs are terminal",
			from:    StatusCancelled,
			action:  ActionStart,
			role:    token.RoleTechnician,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "customer may not start a job",
			from:    StatusAssigned,
			action:  ActionStart,
			role:    token.RoleCustomer,
			wantErr: ErrForbidden,
		},
		{
			name:    "technician may not cancel a job",
			from:    StatusAssigned,
			action:  ActionCancel,
			role:    token.RoleTechnician,
			wantErr: ErrForbidden,
		},
		{
			name:    "technician may not assign a job",
			from:    StatusPending,
			action:  ActionAssign,
			role:    token.RoleTechnician,
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.action, tt.role)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("paused").Valid())

	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, BucketUpcoming, Classify(Job{Status: StatusPending}))
	assert.Equal(t, BucketUpcoming, Classify(Job{Status: StatusAssigned}))
	assert.Equal(t, BucketUpcoming, Classify(Job{Status: StatusInProgress}))
	assert.Equal(t, BucketCompleted, Classify(Job{Status: StatusCompleted}))
	assert.Equal(t, BucketCancelled, Classify(Job{Status: StatusCancelled}))
}

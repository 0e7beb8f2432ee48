package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundmingle/jam/internal/domain"
)

func TestValidateRole(t *testing.T) {
	assert.NoError(t, domain.ValidateRole("bass"))
	assert.NoError(t, domain.ValidateRole("theremin")) // unknown roles are fine
	assert.ErrorIs(t, domain.ValidateRole(""), domain.ErrRoleEmpty)
	assert.ErrorIs(t, domain.ValidateRole(strings.Repeat("x", domain.MaxRoleLen+1)), domain.ErrRoleTooLong)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, domain.ValidateName(""))
	assert.NoError(t, domain.ValidateName("Virtual Bassist"))
	assert.ErrorIs(t, domain.ValidateName(strings.Repeat("x", domain.MaxNameLen+1)), domain.ErrNameTooLong)
}

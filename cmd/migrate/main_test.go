package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error         { return m.Called().Error(0) }
func (m *mockMigrator) Down() error       { return m.Called().Error(0) }
func (m *mockMigrator) Steps(n int) error { return m.Called(n).Error(0) }
func (m *mockMigrator) Force(v int) error { return m.Called(v).Error(0) }
func (m *mockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr bool
	}{
		{"up", []string{"up"}, command{name: "up"}, false},
		{"revert two", []string{"steps", "-2"}, command{name: "steps", arg: -2}, false},
		{"force", []string{"force", "1"}, command{name: "force", arg: 1}, false},
		{"no command", nil, command{}, true},
		{"unknown", []string{"drop"}, command{}, true},
		{"steps without number", []string{"steps"}, command{}, true},
		{"steps not a number", []string{"steps", "x"}, command{}, true},
		{"zero steps", []string{"steps", "0"}, command{}, true},
		{"negative force", []string{"force", "-1"}, command{}, true},
		{"up with extra", []string{"up", "now"}, command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_NoChangeIsSuccess(t *testing.T) {
	m := new(mockMigrator)
	m.On("Up").Return(migrate.ErrNoChange)

	require.NoError(t, execute(m, command{name: "up"}, &bytes.Buffer{}, zap.NewNop()))
	m.AssertExpectations(t)
}

func TestExecute_PropagatesFailure(t *testing.T) {
	m := new(mockMigrator)
	m.On("Steps", -1).Return(errors.New("dirty database"))

	err := execute(m, command{name: "steps", arg: -1}, &bytes.Buffer{}, zap.NewNop())

	assert.ErrorContains(t, err, "migrate steps: dirty database")
}

func TestExecute_Force(t *testing.T) {
	m := new(mockMigrator)
	m.On("Force", 2).Return(nil)

	require.NoError(t, execute(m, command{name: "force", arg: 2}, &bytes.Buffer{}, zap.NewNop()))
	m.AssertExpectations(t)
}

func TestExecute_Version(t *testing.T) {
	m := new(mockMigrator)
	m.On("Version").Return(uint(2), false, nil).Once()
	m.On("Version").Return(uint(0), false, migrate.ErrNilVersion).Once()

	var out bytes.Buffer
	require.NoError(t, execute(m, command{name: "version"}, &out, zap.NewNop()))
	require.NoError(t, execute(m, command{name: "version"}, &out, zap.NewNop()))

	assert.Equal(t, "version: 2, dirty: false\nno migrations applied\n", out.String())
}

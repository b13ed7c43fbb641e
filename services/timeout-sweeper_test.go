package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestRunOnce(t *testing.T) {
	s := new(MockSweeper)
	s.On("Sweep", mock.Anything).Return(2, nil).Once()
	s.On("Sweep", mock.Anything).Return(0, errors.New("db down")).Once()

	ts := NewTimeoutSweeper(s, time.Second)
	assert.Equal(t, 2, ts.RunOnce(context.Background()))
	assert.Equal(t, 0, ts.RunOnce(context.Background()))
	s.AssertExpectations(t)
}

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) Purge() int {
	return m.Called().Int(0)
}

func TestRunOncePurgesCaches(t *testing.T) {
	s := new(MockSweeper)
	s.On("Sweep", mock.Anything).Return(0, nil)
	p := new(MockPurger)
	p.On("Purge").Return(3).Once()

	ts := NewTimeoutSweeper(s, time.Second, p)
	assert.Equal(t, 0, ts.RunOnce(context.Background()))
	p.AssertExpectations(t)
}

func TestStartDisabled(t *testing.T) {
	s := new(MockSweeper)
	NewTimeoutSweeper(s, 0).Start(context.Background())
	s.AssertNotCalled(t, "Sweep", mock.Anything)
}

func TestStartTicks(t *testing.T) {
	s := new(MockSweeper)
	called := make(chan struct{}, 1)
	s.On("Sweep", mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewTimeoutSweeper(s, 10*time.Millisecond).Start(ctx)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("sweep never ran")
	}
}

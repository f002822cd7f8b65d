package trial

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/turboci-repeated/repeated/domain"
)

func TestBodyPass(t *testing.T) {
	exec := Body("TestOK", func(t *T) {
		t.Log("fine")
	})
	if err := exec.RunTrial(context.Background(), 1); err != nil {
		t.Fatalf("RunTrial = %v, want nil", err)
	}
}

func TestBodyErrorfContinues(t *testing.T) {
	reached := false
	exec := Body("TestErrorf", func(t *T) {
		t.Errorf("value = %d", 3)
		reached = true
	})

	err := exec.RunTrial(context.Background(), 1)
	if !domain.IsAssertion(err) {
		t.Fatalf("RunTrial = %v, want assertion", err)
	}
	if !reached {
		t.Error("Errorf should not stop the body")
	}
	if !strings.Contains(err.Error(), "value = 3") {
		t.Errorf("error = %q", err)
	}
}

func TestBodyFatalStopsTrial(t *testing.T) {
	reached := false
	exec := Body("TestFatal", func(t *T) {
		t.Fatal("stop here")
		reached = true
	})

	err := exec.RunTrial(context.Background(), 1)
	if !domain.IsAssertion(err) {
		t.Fatalf("RunTrial = %v, want assertion", err)
	}
	if reached {
		t.Error("Fatal should stop the body")
	}
}

func TestBodyWithRequire(t *testing.T) {
	exec := Body("TestRequire", func(t *T) {
		require.Equal(t, 1, 2)
	})

	err := exec.RunTrial(context.Background(), 1)
	if !domain.IsAssertion(err) {
		t.Fatalf("RunTrial = %v, want assertion", err)
	}
	if !strings.Contains(err.Error(), "Not equal") {
		t.Errorf("error = %q", err)
	}
}

func TestBodyPanicIsUnexpected(t *testing.T) {
	exec := Body("TestPanic", func(t *T) {
		panic(errors.New("bad state"))
	})

	err := exec.RunTrial(context.Background(), 1)
	var panicErr *domain.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("RunTrial = %v, want PanicError", err)
	}
	if domain.IsAssertion(err) {
		t.Error("panic must not be an assertion")
	}
}

func TestBodyGoexitIsNotSwallowed(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_ = Body("TestGoexit", func(t *T) { runtime.Goexit() }).RunTrial(context.Background(), 1)
		done <- errors.New("Goexit returned")
	}()
	select {
	case err, ok := <-done:
		if ok {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestCleanupOrder(t *testing.T) {
	var order []int
	exec := Body("TestCleanup", func(t *T) {
		t.Cleanup(func() { order = append(order, 1) })
		t.Cleanup(func() { order = append(order, 2) })
		t.FailNow()
	})

	_ = exec.RunTrial(context.Background(), 1)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("cleanup order = %v, want [2 1]", order)
	}
}

func TestTName(t *testing.T) {
	var name string
	var index int
	_ = Body("TestName", func(t *T) {
		name = t.Name()
		index = t.Trial()
	}).RunTrial(context.Background(), 3)

	if name != "TestName#3" || index != 3 {
		t.Errorf("Name = %q, Trial = %d", name, index)
	}
}

func TestFunc(t *testing.T) {
	want := domain.Assertionf("x")
	if err := Func(func() error { return want }).RunTrial(context.Background(), 1); err != want {
		t.Errorf("RunTrial = %v, want %v", err, want)
	}
}

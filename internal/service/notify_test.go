package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cubedraft/internal/config"

	"github.com/rs/zerolog"
)

func newNotifyHarness(cooldown time.Duration) (*NotifyService, *fakeMessenger) {
	msgr := newFakeMessenger()
	cfg := &config.Config{NotifyCooldown: cooldown}
	return NewNotifyService(cfg, msgr, zerolog.Nop()), msgr
}

func TestOptInOptOut(t *testing.T) {
	svc, _ := newNotifyHarness(time.Hour)

	svc.OptIn("u1", "CUBE")
	svc.OptIn("u1", "CUBE") // idempotent
	if !svc.CanNotify("u1", "CUBE") {
		t.Error("fresh subscription should be notifiable")
	}

	if !svc.OptOut("u1", "CUBE") {
		t.Error("OptOut of an existing subscription should return true")
	}
	if svc.OptOut("u1", "CUBE") {
		t.Error("second OptOut should return false")
	}
	if svc.CanNotify("u1", "CUBE") {
		t.Error("unsubscribed user must not be notifiable")
	}
}

func TestCooldownGatesRepeatSends(t *testing.T) {
	svc, msgr := newNotifyHarness(time.Hour)
	ctx := context.Background()

	svc.OptIn("u1", "CUBE")
	svc.NotifyEligible(ctx, "CUBE", 5)
	if got := msgr.dmCount("u1"); got != 1 {
		t.Fatalf("first NotifyEligible sent %d messages, want 1", got)
	}

	svc.NotifyEligible(ctx, "CUBE", 6)
	if got := msgr.dmCount("u1"); got != 1 {
		t.Errorf("send within cooldown: got %d messages, want still 1", got)
	}

	if !svc.ResetTimer("u1", "CUBE") {
		t.Fatal("ResetTimer on a subscription should return true")
	}
	svc.NotifyEligible(ctx, "CUBE", 7)
	if got := msgr.dmCount("u1"); got != 2 {
		t.Errorf("send after reset: got %d messages, want 2", got)
	}
}

func TestResetTimerWithoutSubscription(t *testing.T) {
	svc, _ := newNotifyHarness(time.Hour)
	if svc.ResetTimer("ghost", "CUBE") {
		t.Error("ResetTimer without subscription should return false")
	}
}

func TestDeliveryFailureSkipsRecipientOnly(t *testing.T) {
	svc, msgr := newNotifyHarness(time.Hour)
	ctx := context.Background()

	svc.OptIn("good", "CUBE")
	svc.OptIn("bad", "CUBE")
	msgr.dmErrFor["bad"] = errors.New("dms closed")

	svc.NotifyEligible(ctx, "CUBE", 3)

	if got := msgr.dmCount("good"); got != 1 {
		t.Errorf("healthy recipient got %d messages, want 1", got)
	}
	// The failed recipient keeps an open cooldown and is retried next time.
	if !svc.CanNotify("bad", "CUBE") {
		t.Error("failed delivery must not burn the cooldown")
	}
	if svc.CanNotify("good", "CUBE") {
		t.Error("successful delivery must start the cooldown")
	}
}

func TestNotifyScopedToQueue(t *testing.T) {
	svc, msgr := newNotifyHarness(time.Hour)

	svc.OptIn("u1", "CUBE")
	svc.OptIn("u2", "OTHER")

	svc.NotifyEligible(context.Background(), "CUBE", 4)
	if got := msgr.dmCount("u2"); got != 0 {
		t.Errorf("subscriber of another queue was notified %d times", got)
	}
}

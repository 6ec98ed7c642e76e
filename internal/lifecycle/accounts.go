package lifecycle

import "time"

// Account-level toggles mirror the order operations: mandatory memo,
// one audit entry per action, no partial application.

// SetHold places or lifts a hold on the customer account.
func (c *Customer) SetHold(on bool, memo, actor string, now time.Time) error {
	if memo == "" {
		return missingMemo("customer hold")
	}
	if c.OnHold == on {
		return &ValidationError{Field: "hold", Reason: "already in requested state"}
	}
	c.OnHold = on
	if on {
		c.HoldReason = memo
	} else {
		c.HoldReason = ""
	}
	action := ActionHoldSet
	if !on {
		action = ActionHoldReleased
	}
	c.Log = append(c.Log, LogEntry{At: now, Actor: actor, Action: action, Memo: memo})
	return nil
}

// Blacklist marks the supplier as blocked for new awards.
func (s *Supplier) Blacklist(memo, actor string, now time.Time) error {
	if memo == "" {
		return missingMemo("blacklist supplier")
	}
	if s.Blacklisted {
		return &ValidationError{Field: "blacklist", Reason: "already blacklisted"}
	}
	s.Blacklisted = true
	s.BlacklistReason = memo
	s.Log = append(s.Log, LogEntry{At: now, Actor: actor, Action: "BLACKLISTED", Memo: memo})
	return nil
}

// RemoveBlacklist lifts a supplier blacklist.
func (s *Supplier) RemoveBlacklist(memo, actor string, now time.Time) error {
	if memo == "" {
		return missingMemo("remove supplier blacklist")
	}
	if !s.Blacklisted {
		return &ValidationError{Field: "blacklist", Reason: "not blacklisted"}
	}
	s.Blacklisted = false
	s.BlacklistReason = ""
	s.Log = append(s.Log, LogEntry{At: now, Actor: actor, Action: "BLACKLIST_REMOVED", Memo: memo})
	return nil
}

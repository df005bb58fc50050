package store

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/cnlance/rulesd/internal/rule"
)

// fakePersister records saved snapshots and can be told to fail.
type fakePersister struct {
	mu        sync.Mutex
	saved     [][]rule.Rule
	saveErr   error
	loadRules []rule.Rule
	loadErr   error
}

func (p *fakePersister) Save(rules []rule.Rule) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = append(p.saved, slices.Clone(rules))
	return nil
}

func (p *fakePersister) Load() ([]rule.Rule, error) {
	return p.loadRules, p.loadErr
}

func (p *fakePersister) lastSaved() []rule.Rule {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) == 0 {
		return nil
	}
	return p.saved[len(p.saved)-1]
}

var (
	ruleA = rule.Rule{Type: rule.RuleTypeIPCIDR, Value: "10.0.0.0/8"}
	ruleB = rule.Rule{Type: rule.RuleTypeDomain, Value: "example.com"}
)

func TestAddAndList(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	if err := s.Add(ruleA); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ruleB); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rules, rev := s.List()
	if !slices.Equal(rules, []rule.Rule{ruleA, ruleB}) {
		t.Errorf("List = %v, insertion order not preserved", rules)
	}
	if rev != 2 {
		t.Errorf("revision = %d, want 2", rev)
	}
	if !slices.Equal(p.lastSaved(), rules) {
		t.Errorf("persisted snapshot %v differs from collection %v", p.lastSaved(), rules)
	}
}

func TestAddDuplicate(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	if err := s.Add(ruleA); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if err := s.Add(ruleA); !errors.Is(err, rule.ErrDuplicateRule) {
		t.Fatalf("second Add = %v, want ErrDuplicateRule", err)
	}

	rules, _ := s.List()
	if len(rules) != 1 {
		t.Errorf("collection length = %d, want 1", len(rules))
	}
	if len(p.saved) != 1 {
		t.Errorf("duplicate add should not persist, saves = %d", len(p.saved))
	}
}

func TestAddInvalidDoesNotMutate(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	err := s.Add(rule.Rule{Type: rule.RuleTypeDomain, Value: "!!"})
	if err == nil {
		t.Fatal("invalid rule should be rejected")
	}
	if !rule.IsValidationError(err) {
		t.Errorf("error should be a validation error, got %v", err)
	}

	rules, rev := s.List()
	if len(rules) != 0 || rev != 0 {
		t.Errorf("collection changed: rules=%v rev=%d", rules, rev)
	}
	if len(p.saved) != 0 {
		t.Error("validation failure should not persist")
	}
}

func TestRemoveExactness(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	if err := s.Add(ruleA); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ruleB); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Remove(ruleA); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	rules, _ := s.List()
	if !slices.Equal(rules, []rule.Rule{ruleB}) {
		t.Errorf("List = %v, want only %v", rules, ruleB)
	}

	if err := s.Remove(ruleA); !errors.Is(err, rule.ErrRuleNotFound) {
		t.Fatalf("second Remove = %v, want ErrRuleNotFound", err)
	}
}

func TestRemoveNotFoundDoesNotPersist(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	if err := s.Remove(ruleA); !errors.Is(err, rule.ErrRuleNotFound) {
		t.Fatalf("Remove = %v, want ErrRuleNotFound", err)
	}
	if len(p.saved) != 0 {
		t.Error("failed remove should not persist")
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("disk full")}
	s := New(p)

	err := s.Add(ruleA)
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Add = %v, want the persistence error", err)
	}

	// The mutation is reported as failed but deliberately not rolled back.
	rules, _ := s.List()
	if !slices.Equal(rules, []rule.Rule{ruleA}) {
		t.Errorf("List = %v, in-memory add should survive a failed save", rules)
	}

	// The next successful mutation persists the full current state.
	p.saveErr = nil
	if err := s.Add(ruleB); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !slices.Equal(p.lastSaved(), []rule.Rule{ruleA, ruleB}) {
		t.Errorf("persisted %v, want both rules", p.lastSaved())
	}
}

func TestStaleSnapshotSkipped(t *testing.T) {
	p := &fakePersister{}
	s := New(p)
	if err := s.Add(ruleA); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ruleB); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// A snapshot older than what is already on disk must not regress the
	// file.
	if err := s.persist([]rule.Rule{ruleA}, 1); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if len(p.saved) != 2 {
		t.Errorf("stale snapshot was written, saves = %d", len(p.saved))
	}
	if !slices.Equal(p.lastSaved(), []rule.Rule{ruleA, ruleB}) {
		t.Errorf("disk state regressed to %v", p.lastSaved())
	}
}

func TestConcurrentAdds(t *testing.T) {
	p := &fakePersister{}
	s := New(p)

	rules := []rule.Rule{
		{Type: rule.RuleTypeDstPort, Value: "80"},
		{Type: rule.RuleTypeDstPort, Value: "443"},
		{Type: rule.RuleTypeDomain, Value: "example.com"},
		{Type: rule.RuleTypeIPCIDR, Value: "10.0.0.0/8"},
		{Type: rule.RuleTypeMatch, Value: "PROXY"},
	}

	var wg sync.WaitGroup
	for _, r := range rules {
		wg.Add(1)
		go func(r rule.Rule) {
			defer wg.Done()
			if err := s.Add(r); err != nil {
				t.Errorf("Add(%v) failed: %v", r, err)
			}
		}(r)
	}
	wg.Wait()

	got, rev := s.List()
	if len(got) != len(rules) {
		t.Errorf("collection length = %d, want %d", len(got), len(rules))
	}
	if rev != uint64(len(rules)) {
		t.Errorf("revision = %d, want %d", rev, len(rules))
	}
	// The last write to disk must reflect the final state.
	if len(p.lastSaved()) != len(rules) {
		t.Errorf("final persisted snapshot has %d rules, want %d", len(p.lastSaved()), len(rules))
	}
}

func TestLoad(t *testing.T) {
	p := &fakePersister{loadRules: []rule.Rule{ruleA, ruleB}}
	s, err := Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rules, rev := s.List()
	if !slices.Equal(rules, []rule.Rule{ruleA, ruleB}) {
		t.Errorf("List = %v", rules)
	}
	if rev != 0 {
		t.Errorf("fresh store revision = %d, want 0", rev)
	}
}

func TestLoadError(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("decode rules file: boom")}
	if _, err := Load(p); err == nil {
		t.Fatal("Load should surface persister errors")
	}
}

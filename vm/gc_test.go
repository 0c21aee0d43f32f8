package vm

import "testing"

type countingRelay struct {
	cleaned int
}

func (r *countingRelay) Clean() { r.cleaned++ }

func TestCollectSweepsUnreachable(t *testing.T) {
	v := newTestVM(7)
	kept := v.NewObject()
	v.Global().Set("kept", ObjectValue(kept))
	child := v.NewObject()
	kept.Set("child", ObjectValue(child))

	relay := &countingRelay{}
	garbage := v.NewObject()
	garbage.SetRelay(relay)

	stats := v.Collector().Collect()
	if stats.Swept == 0 {
		t.Fatalf("Collect swept nothing")
	}
	if !kept.Reachable() || !child.Reachable() {
		t.Errorf("objects reachable from the global object were not marked")
	}
	if garbage.Reachable() {
		t.Errorf("unreferenced object was marked")
	}
	if relay.cleaned != 1 {
		t.Errorf("relay cleaned %d times, want 1", relay.cleaned)
	}

	again := v.Collector().Collect()
	if again.Swept != 0 {
		t.Errorf("second collection swept %d, want 0", again.Swept)
	}
}

type extraRoot struct {
	obj *Object
}

func (r *extraRoot) MarkReachableResources(c *Collector) { c.Mark(r.obj) }

func TestCollectMarksExtraRoots(t *testing.T) {
	v := newTestVM(7)
	root := &extraRoot{obj: v.NewObject()}
	v.Collector().AddRoot(root)
	v.Collector().Collect()
	if !root.obj.Reachable() {
		t.Errorf("object held by an extra root was not marked")
	}

	v.Collector().RemoveRoot(root)
	v.Collector().Collect()
	if root.obj.Reachable() {
		t.Errorf("object still marked after its root was removed")
	}
}

func TestFuzzyCollectThreshold(t *testing.T) {
	v := newTestVM(7)
	c := v.Collector()
	c.Threshold = 10
	c.Collect()

	for i := 0; i < 5; i++ {
		v.NewObject()
	}
	if stats := c.FuzzyCollect(); stats != nil {
		t.Errorf("FuzzyCollect ran below the threshold")
	}
	for i := 0; i < 10; i++ {
		v.NewObject()
	}
	stats := c.FuzzyCollect()
	if stats == nil {
		t.Fatalf("FuzzyCollect skipped above the threshold")
	}
	if stats.Swept != 15 {
		t.Errorf("swept %d, want 15", stats.Swept)
	}
}

package reconciliation

import "testing"

func TestBaselinePolicy_PreviousClosingCash(t *testing.T) {
	prior := &PriorClose{
		CashInBox:          d(45000),
		TotalCounted:       d(400000),
		DailyCashGenerated: d(370000),
	}

	cases := []struct {
		policy BaselinePolicy
		prior  *PriorClose
		want   int64
	}{
		{BaselineCashInBox, prior, 45000},
		{BaselineCarriedForward, prior, 30000},
		{BaselineCashInBox, nil, 0},
		{BaselineCarriedForward, nil, 0},
	}
	for _, tc := range cases {
		got := tc.policy.PreviousClosingCash(tc.prior)
		if !got.Equal(d(tc.want)) {
			t.Fatalf("%s: expected %d, got %s", tc.policy, tc.want, got)
		}
	}
}

func TestParseBaselinePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    BaselinePolicy
		wantErr bool
	}{
		{"", BaselineCashInBox, false},
		{"cash_in_box", BaselineCashInBox, false},
		{"carried_forward", BaselineCarriedForward, false},
		{"yesterday", "", true},
	}
	for _, tc := range cases {
		got, err := ParseBaselinePolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseBaselinePolicy(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseBaselinePolicy(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCountRides(t *testing.T) {
	total, rides := CountRides([]int{120, 80, 55, 0, 40, 5}, 250)
	if total != 300 || rides != 50 {
		t.Fatalf("expected 300/50, got %d/%d", total, rides)
	}

	total, rides = CountRides(nil, 0)
	if total != 0 || rides != 0 {
		t.Fatalf("expected 0/0 for no counters, got %d/%d", total, rides)
	}
}

func TestDefaultBaselineIsCashLeftInBox(t *testing.T) {
	policy, err := ParseBaselinePolicy("")
	if err != nil {
		t.Fatalf("default policy: %v", err)
	}
	prior := &PriorClose{CashInBox: d(45000), TotalCounted: d(400000), DailyCashGenerated: d(370000)}
	if got := policy.PreviousClosingCash(prior); !got.Equal(prior.CashInBox) {
		t.Fatalf("default baseline: expected cash_in_box %s, got %s", prior.CashInBox, got)
	}
}

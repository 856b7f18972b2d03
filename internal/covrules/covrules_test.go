package covrules

import "testing"

func TestReasonText(t *testing.T) {
	tests := []struct {
		text    string
		want    Reason
		wantErr bool
	}{
		{text: "CVG000: NotFnLike", want: CVG000NotFnLike},
		{text: "CVG010", want: CVG010AutomaticallyDerived},
		{text: "CVG020: Naked", want: CVG020Naked},
		{text: "CVG030", want: CVG030CoverageOff},
		{text: "CVG040", wantErr: true},
		{text: "Naked", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got Reason
			err := got.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("error expected, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReasonUnknown(t *testing.T) {
	var r Reason
	if got := r.String(); got != "reason-unknown(0)" {
		t.Errorf("unexpected text %q", got)
	}
	if got := Reason(42).Description(); got != "unknown-reason(42)" {
		t.Errorf("unexpected description %q", got)
	}
}

package geometry

import "testing"

func TestEncodePriority(t *testing.T) {
	b := NewBox(nil)
	if got := EncodePriority(b); got != "" {
		t.Errorf("default box encodes as %q, want empty", got)
	}

	b.SetEdge(Right, Px(4))
	if got := EncodePriority(b); got != "0,4|" {
		t.Errorf("EncodePriority = %q, want %q", got, "0,4|")
	}

	_ = b.SetPriority(Vertical, Height, Bottom)
	if got := EncodePriority(b); got != "0,4|3,5" {
		t.Errorf("EncodePriority = %q, want %q", got, "0,4|3,5")
	}
}

func TestDecodePriority(t *testing.T) {
	tests := []struct {
		in      string
		wantH   Priority
		wantV   Priority
		wantErr bool
	}{
		{"", Priority{Left, Width}, Priority{Top, Height}, false},
		{"|", Priority{Left, Width}, Priority{Top, Height}, false},
		{"0,4|", Priority{Left, Right}, Priority{Top, Height}, false},
		{"|5,1", Priority{Left, Width}, Priority{Bottom, Top}, false},
		{"2,4|3,5", Priority{Width, Right}, Priority{Height, Bottom}, false},
		{"0,1|", Priority{Left, Width}, Priority{Top, Height}, true},
		{"x,y|3", Priority{Left, Width}, Priority{Top, Height}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b := NewBox(nil)
			err := DecodePriority(b, tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got := b.Priority(Horizontal); got != tt.wantH {
				t.Errorf("horizontal = %+v, want %+v", got, tt.wantH)
			}
			if got := b.Priority(Vertical); got != tt.wantV {
				t.Errorf("vertical = %+v, want %+v", got, tt.wantV)
			}
		})
	}
}

func TestPriorityRoundTrip(t *testing.T) {
	b := NewBox(nil)
	b.SetEdge(Left, Px(1))
	b.SetEdge(Right, Px(2))
	b.SetEdge(Bottom, Pct(3))

	enc := EncodePriority(b)
	c := NewBox(nil)
	if err := DecodePriority(c, enc); err != nil {
		t.Fatal(err)
	}
	if got := EncodePriority(c); got != enc {
		t.Errorf("round trip = %q, want %q", got, enc)
	}
}

func TestStyleRoundTrip(t *testing.T) {
	b := NewBox(nil)
	b.SetEdge(Left, Px(10.5))
	b.SetEdge(Width, Pct(33.3333))
	b.SetEdge(Top, Px(0))
	b.SetEdge(Height, Px(75))

	style := FormatStyle(b)
	want := "position:absolute;left:10.5px;top:0px;width:33.3333%;height:75px"
	if style != want {
		t.Fatalf("FormatStyle = %q, want %q", style, want)
	}

	c := NewBox(nil)
	extra, err := ParseStyle(c, style+";color:red")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(b) {
		t.Errorf("ParseStyle did not restore values: %q", FormatStyle(c))
	}
	if extra["color"] != "red" {
		t.Errorf("extra = %v, want color:red", extra)
	}
}

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		in      string
		want    Measure
		wantErr bool
	}{
		{"10px", Px(10), false},
		{"25%", Pct(25), false},
		{"7", Px(7), false},
		{"", Measure{}, false},
		{"abc", Measure{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMeasure(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMeasure(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMeasure(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsl

import (
	"errors"
	"testing"
)

const fragmentWGSL = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

func TestCompile(t *testing.T) {
	words, err := Compile(fragmentWGSL)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(words) == 0 {
		t.Fatal("Compile() returned no words")
	}
	if words[0] != spirvMagic {
		t.Errorf("words[0] = %#x, want %#x", words[0], spirvMagic)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(""); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Compile(\"\") error = %v, want ErrEmptySource", err)
	}
	if _, err := Compile("fn broken( {"); err == nil {
		t.Error("Compile(invalid) should fail")
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []uint32
		wantErr bool
	}{
		{"empty", nil, []uint32{}, false},
		{"magic", []byte{0x03, 0x02, 0x23, 0x07}, []uint32{spirvMagic}, false},
		{"two words", []byte{1, 0, 0, 0, 0, 0, 0, 0x80}, []uint32{1, 0x80000000}, false},
		{"truncated", []byte{1, 2, 3}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Words(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Words() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("word %d = %#x, want %#x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

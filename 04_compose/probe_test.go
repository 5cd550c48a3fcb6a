package compose

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"narrated-video-pipeline/types"
)

type scriptedRunner struct {
	res  Result
	name string
	args []string
}

func (s *scriptedRunner) Run(_ context.Context, name string, args []string) Result {
	s.name, s.args = name, args
	return s.res
}

func TestProberDuration(t *testing.T) {
	tests := []struct {
		name    string
		res     Result
		want    float64
		wantErr error
	}{
		{name: "plain", res: Result{Stdout: []byte("12.345000\n")}, want: 12.345},
		{name: "integer", res: Result{Stdout: []byte("7")}, want: 7},
		{name: "zero", res: Result{Stdout: []byte("0.000000")}, want: 0},
		{name: "not available", res: Result{Stdout: []byte("N/A\n")}, wantErr: types.ErrProbeParse},
		{name: "empty", res: Result{}, wantErr: types.ErrProbeParse},
		{name: "negative", res: Result{Stdout: []byte("-1.5")}, wantErr: types.ErrProbeParse},
		{name: "nan", res: Result{Stdout: []byte("NaN")}, wantErr: types.ErrProbeParse},
		{name: "inf", res: Result{Stdout: []byte("+Inf")}, wantErr: types.ErrProbeParse},
		{
			name:    "missing file",
			res:     Result{Stderr: []byte("missing.mp3: No such file or directory"), Err: errors.New("exit status 1")},
			wantErr: types.ErrProbeParse,
		},
		{
			name:    "timeout",
			res:     Result{Err: fmt.Errorf("ffprobe after 30s: %w", types.ErrTimeout)},
			wantErr: types.ErrTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{res: tt.res}
			got, err := NewProber("ffprobe", r).Duration(context.Background(), "in.mp3")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProberArgs(t *testing.T) {
	r := &scriptedRunner{res: Result{Stdout: []byte("1.0")}}
	if _, err := NewProber("/opt/ffprobe", r).Duration(context.Background(), "a b.mp3"); err != nil {
		t.Fatal(err)
	}
	want := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "a b.mp3"}
	if r.name != "/opt/ffprobe" || !reflect.DeepEqual(r.args, want) {
		t.Errorf("ran %s %q", r.name, r.args)
	}
}

func TestProberIsRepeatable(t *testing.T) {
	r := &scriptedRunner{res: Result{Stdout: []byte("3.141000")}}
	p := NewProber("ffprobe", r)
	a, err1 := p.Duration(context.Background(), "x.mp3")
	b, err2 := p.Duration(context.Background(), "x.mp3")
	if err1 != nil || err2 != nil || a != b {
		t.Errorf("got %v/%v and %v/%v", a, err1, b, err2)
	}
}

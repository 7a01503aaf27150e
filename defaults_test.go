package rtprobe

import "testing"

func TestResponsesURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: "http://localhost:8282/v1/responses"},
		{in: "http://localhost:8282", want: "http://localhost:8282/v1/responses"},
		{in: "http://localhost:8282/", want: "http://localhost:8282/v1/responses"},
		{in: "https://proxy.example.com/v1", want: "https://proxy.example.com/v1/responses"},
		{in: "https://proxy.example.com/v1/responses", want: "https://proxy.example.com/v1/responses"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := ResponsesURL(tc.in); got != tc.want {
				t.Fatalf("ResponsesURL(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cmon/internal/logging"
	"cmon/internal/weasel"
)

// UpperTest echoes the first string of each list record in uppercase. It is
// used to exercise the delivery pipeline without an external sink.
type UpperTest struct{}

func init() {
	weasel.DefaultRegistry.MustRegister(&UpperTest{})
}

func (s *UpperTest) Name() string        { return "up.test" }
func (s *UpperTest) Description() string { return "deliver first string in list in uppercase" }

// Deliver implements Service interface
func (s *UpperTest) Deliver(ctx context.Context, env *weasel.Env) error {
	var n int
	err := env.Records(ctx, func(line []byte) error {
		var items []string
		if err := weasel.Decode(line, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("empty list record for %s", s.Name())
		}
		var b strings.Builder
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		if err := enc.Encode([]string{strings.ToUpper(items[0])}); err != nil {
			return err
		}
		n++
		return env.Println(strings.TrimSuffix(b.String(), "\n"))
	})
	if err != nil {
		return err
	}
	logging.DeliveryComplete(s.Name(), n, n)
	return nil
}

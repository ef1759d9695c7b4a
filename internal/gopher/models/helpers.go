package models

import (
	"context"
	"fmt"

	"cmon/internal/gopher"
	"cmon/internal/helper"
	"cmon/internal/record"
)

type cdrRecord struct {
	ID     string `col:"id"`
	Date   string `col:"date"`
	Time   string `col:"time"`
	Dur    string `col:"dur"`
	From   string `col:"from"`
	To     string `col:"to"`
	DIP    string `col:"dip"`
	Egress string `col:"egress"`
}

// SwitchCDRs fetches switch call-detail records collected by a helper.
// Only STOP records are reported.
type SwitchCDRs struct{}

// KubeObjects fetches Kubernetes objects listed by a helper.
type KubeObjects struct{}

func init() {
	gopher.DefaultRegistry.MustRegister(&SwitchCDRs{})
	gopher.DefaultRegistry.MustRegister(&KubeObjects{})
}

func (m *SwitchCDRs) Name() string        { return "cdr.asp" }
func (m *SwitchCDRs) Description() string { return "fetch switch CDRs from Aspect" }
func (m *SwitchCDRs) Columns() []string   { return record.Columns(cdrRecord{}, false) }

// Fetch implements Model interface
func (m *SwitchCDRs) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
	if env.Settings.AWS == nil {
		return fmt.Errorf("no AWS configuration for %s", m.Name())
	}
	proto := helper.Protocol{RowPrefix: "STOP,", Columns: 33}
	return env.Helper.Run(ctx, helper.Path(env.Settings.BinDir, "goph_cdrasp.sh"), nil, proto,
		func(section string, row helper.Row) error {
			return w.Emit(section, record.Of(cdrRecord{
				ID:     row.Get(2),
				Date:   row.Get(5),
				Time:   row.Get(6),
				Dur:    row.Get(13),
				From:   row.Get(19),
				To:     row.Get(20),
				DIP:    row.Get(23),
				Egress: row.Get(31),
			}))
		})
}

type kubeRecord struct {
	ID   string `col:"id"`
	Type string `col:"type"`
}

func (m *KubeObjects) Name() string        { return "obj.k8s" }
func (m *KubeObjects) Description() string { return "fetch Kubernetes objects" }
func (m *KubeObjects) Columns() []string   { return record.Columns(kubeRecord{}, false) }

// Fetch implements Model interface
func (m *KubeObjects) Fetch(ctx context.Context, env *gopher.Env, w *record.Writer) error {
	s := env.Settings
	if s.K8s == nil {
		return fmt.Errorf("no K8s configuration for %s", m.Name())
	}
	if s.BinDir == "" {
		return fmt.Errorf("no bin directory for %s", m.Name())
	}
	proto := helper.Protocol{Columns: 11}
	return env.Helper.Run(ctx, helper.Path(s.BinDir, "goph_objk8s.sh"), s.K8s.Contexts, proto,
		func(section string, row helper.Row) error {
			return w.Emit(section, record.Of(kubeRecord{ID: row.Get(0), Type: row.Get(9)}))
		})
}

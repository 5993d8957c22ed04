package config

import (
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/openfroyo/chassis/pkg/options"
)

// BindFlags registers one flag per option on fs. A flag given on the
// command line writes its cell directly, which makes it the explicit layer
// the keyfile cannot override.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	bind := func(d options.Descriptor) {
		fv := &flagValue{desc: d}
		flag := fs.VarPF(fv, d.Name, "", d.Usage)
		flag.DefValue = defaults[d.Name]
		if d.Kind == options.KindBool {
			flag.NoOptDefVal = "true"
		}
		o.flags = append(o.flags, fv)
	}

	bind(options.String("defaults-file", &o.DefaultsFile, "read options from the [chassis] group of this keyfile"))
	o.Table().Each(func(d *options.Descriptor) {
		bind(*d)
	})
}

// reapplyFlags writes command-line scalars back after the keyfile pass.
// Boolean and numeric options have no presence test during resolution, so
// the file value lands on top of the flag and has to be replaced again.
func (o *Options) reapplyFlags() error {
	for _, fv := range o.flags {
		switch fv.desc.Kind {
		case options.KindBool, options.KindInt, options.KindDouble:
		default:
			continue
		}
		if len(fv.raw) == 0 {
			continue
		}
		if err := fv.desc.Assign(fv.raw[len(fv.raw)-1]); err != nil {
			return err
		}
	}
	return nil
}

// flagValue adapts a descriptor to pflag.Value using the keyfile parse
// rules. Repeating a list flag appends.
type flagValue struct {
	desc options.Descriptor
	raw  []string
}

func (f *flagValue) Set(s string) error {
	if f.desc.Kind == options.KindStringList && len(f.raw) > 0 {
		items, err := options.ParseStringList(s)
		if err != nil {
			return err
		}
		cell := f.desc.Binding.(*options.Value[[]string])
		cell.Set(append(cell.Get(), items...))
	} else if err := f.desc.Assign(s); err != nil {
		return err
	}
	f.raw = append(f.raw, s)
	return nil
}

func (f *flagValue) String() string {
	switch b := f.desc.Binding.(type) {
	case *options.Value[string]:
		return b.Get()
	case *options.Value[[]string]:
		return strings.Join(b.Get(), string(options.ListSeparator))
	case *options.Value[bool]:
		return strconv.FormatBool(b.Get())
	case *options.Value[int]:
		return strconv.Itoa(b.Get())
	case *options.Value[float64]:
		return strconv.FormatFloat(b.Get(), 'g', -1, 64)
	default:
		return ""
	}
}

func (f *flagValue) Type() string {
	switch f.desc.Kind {
	case options.KindStringList:
		return "stringArray"
	case options.KindBool:
		return "bool"
	case options.KindInt:
		return "int"
	case options.KindDouble:
		return "float64"
	default:
		return "string"
	}
}

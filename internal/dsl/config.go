package dsl

import "github.com/Danondso/rhkd/internal/hotkeys"

// ParseConfig runs the full Scan -> Build -> Expand pipeline over a whole
// rhkdrc file, the pipeline every caller outside of package dsl actually
// wants: loading the config at startup and reloading it on SIGUSR1 both
// need "give me every well-formed hotkey in this file", not the individual
// stages. A triple whose expansion reports errors is skipped, per spec.md
// §7's "none are fatal: the offending triple is skipped" — its errors are
// still returned so the caller can log or publish them.
func ParseConfig(src []byte) ([]hotkeys.Hotkey, []*ParseError) {
	tokens, scanErrs := Scan(src)
	triples, buildErrs := Build(tokens)
	expanded, expandErrs := Expand(triples, src)

	errs := append(append(scanErrs, buildErrs...), expandErrs...)

	var hks []hotkeys.Hotkey
	for _, ex := range expanded {
		if len(ex.Errs) > 0 {
			errs = append(errs, ex.Errs...)
			continue
		}
		hks = append(hks, ex.Hotkey)
	}
	return hks, errs
}

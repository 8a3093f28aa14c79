/*package parse reads typed variables out of YAML config files and command
line overrides.

A config file holds a single top-level section whose name matches the
ConfigVars it is read into:

	map:
	  Nx: 512
	  XRange: [-1, 1]

Every variable may also be set with an environment variable named
DEFLECT_<SECTION>_<VARIABLE> (upper case), which takes precedence over the
file.
*/
package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "DEFLECT"

/////////////////////
// Conversion Code //
/////////////////////

type varType int

const (
	intVar varType = iota
	intsVar
	floatVar
	floatsVar
	stringVar
	stringsVar
	boolVar
	durationVar
)

func (v varType) String() string {
	switch v {
	case intVar:
		return "int"
	case intsVar:
		return "int list"
	case floatVar:
		return "float"
	case floatsVar:
		return "float list"
	case stringVar:
		return "string"
	case stringsVar:
		return "string list"
	case boolVar:
		return "bool"
	case durationVar:
		return "duration"
	}
	panic("Impossible")
}

type conversionFunc func(interface{}) bool

type configVar struct {
	name string
	typ  varType
	conv conversionFunc
}

// ConfigVars is a set of named, typed variables which can be filled in from
// a config file or from flags.
type ConfigVars struct {
	name string
	vars []configVar
}

func intConv(ptr *int64) conversionFunc {
	return func(v interface{}) bool {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		i, err := cast.ToInt64E(v)
		if err != nil {
			return false
		}
		*ptr = i
		return true
	}
}

func floatConv(ptr *float64) conversionFunc {
	return func(v interface{}) bool {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false
		}
		*ptr = f
		return true
	}
}

func stringConv(ptr *string) conversionFunc {
	return func(v interface{}) bool {
		s, err := cast.ToStringE(v)
		if err != nil {
			return false
		}
		*ptr = strings.TrimSpace(s)
		return true
	}
}

func boolConv(ptr *bool) conversionFunc {
	return func(v interface{}) bool {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return false
		}
		*ptr = b
		return true
	}
}

func durationConv(ptr *time.Duration) conversionFunc {
	return func(v interface{}) bool {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		d, err := cast.ToDurationE(v)
		if err != nil {
			return false
		}
		*ptr = d
		return true
	}
}

func strToList(a string) []interface{} {
	a = strings.Trim(strings.TrimSpace(a), "[]")
	if strings.TrimSpace(a) == "" {
		return []interface{}{}
	}

	strs := strings.Split(a, ",")
	out := make([]interface{}, len(strs))
	for i := range strs {
		out[i] = strings.TrimSpace(strs[i])
	}
	return out
}

// toList splits v into its elements. Strings are treated as comma-separated
// lists.
func toList(v interface{}) ([]interface{}, bool) {
	if s, ok := v.(string); ok {
		return strToList(s), true
	}
	list, err := cast.ToSliceE(v)
	return list, err == nil
}

func intsConv(ptr *[]int64) conversionFunc {
	return func(v interface{}) bool {
		toks, ok := toList(v)
		if !ok {
			return false
		}
		out := make([]int64, len(toks))
		for j := range toks {
			if !intConv(&out[j])(toks[j]) {
				return false
			}
		}
		*ptr = out
		return true
	}
}

func floatsConv(ptr *[]float64) conversionFunc {
	return func(v interface{}) bool {
		toks, ok := toList(v)
		if !ok {
			return false
		}
		out := make([]float64, len(toks))
		for j := range toks {
			if !floatConv(&out[j])(toks[j]) {
				return false
			}
		}
		*ptr = out
		return true
	}
}

func stringsConv(ptr *[]string) conversionFunc {
	return func(v interface{}) bool {
		toks, ok := toList(v)
		if !ok {
			return false
		}
		out := make([]string, len(toks))
		for j := range toks {
			if !stringConv(&out[j])(toks[j]) {
				return false
			}
		}
		*ptr = out
		return true
	}
}

// NewConfigVars creates an empty set of variables for the config section
// with the given name.
func NewConfigVars(name string) *ConfigVars {
	return &ConfigVars{name: name}
}

func (vars *ConfigVars) add(name string, typ varType, conv conversionFunc) {
	vars.vars = append(vars.vars, configVar{name: name, typ: typ, conv: conv})
}

func (vars *ConfigVars) Int(ptr *int64, name string, value int64) {
	*ptr = value
	vars.add(name, intVar, intConv(ptr))
}

func (vars *ConfigVars) Float(ptr *float64, name string, value float64) {
	*ptr = value
	vars.add(name, floatVar, floatConv(ptr))
}

func (vars *ConfigVars) String(ptr *string, name string, value string) {
	*ptr = value
	vars.add(name, stringVar, stringConv(ptr))
}

func (vars *ConfigVars) Bool(ptr *bool, name string, value bool) {
	*ptr = value
	vars.add(name, boolVar, boolConv(ptr))
}

func (vars *ConfigVars) Duration(ptr *time.Duration, name string, value time.Duration) {
	*ptr = value
	vars.add(name, durationVar, durationConv(ptr))
}

func (vars *ConfigVars) Ints(ptr *[]int64, name string, value []int64) {
	*ptr = value
	vars.add(name, intsVar, intsConv(ptr))
}

func (vars *ConfigVars) Floats(ptr *[]float64, name string, value []float64) {
	*ptr = value
	vars.add(name, floatsVar, floatsConv(ptr))
}

func (vars *ConfigVars) Strings(ptr *[]string, name string, value []string) {
	*ptr = value
	vars.add(name, stringsVar, stringsConv(ptr))
}

func (vars *ConfigVars) lookup(name string) *configVar {
	name = strings.ToLower(name)
	for i := range vars.vars {
		if strings.ToLower(vars.vars[i].name) == name {
			return &vars.vars[i]
		}
	}
	return nil
}

func (vars *ConfigVars) section() string { return strings.ToLower(vars.name) }

//////////////////
// Parsing Code //
//////////////////

// ReadConfig reads the section of the YAML file fname which matches vars
// and writes every variable it sets. Unknown variables, unknown sections and
// values which cannot be converted are errors.
func ReadConfig(fname string, vars *ConfigVars) error {
	fname, err := homedir.Expand(fname)
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(fname)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("I could not read the config file %s: %w", fname, err)
	}

	section := vars.section()
	if !v.InConfig(section) {
		return fmt.Errorf(
			"I expected the config file %s to have a top-level '%s' "+
				"section, but didn't find it.", fname, vars.name,
		)
	}

	for _, key := range v.AllKeys() {
		name, ok := strings.CutPrefix(key, section+".")
		if !ok {
			return fmt.Errorf(
				"The config file %s has the top-level key '%s', but config "+
					"files of type %s only have the section '%s'.",
				fname, strings.SplitN(key, ".", 2)[0], vars.name, vars.name,
			)
		} else if vars.lookup(name) == nil {
			return fmt.Errorf(
				"The config file %s assigns a value to the variable '%s', "+
					"but config files of type %s don't have that variable.",
				fname, name, vars.name,
			)
		}
	}

	for i := range vars.vars {
		cv := &vars.vars[i]
		key := section + "." + strings.ToLower(cv.name)
		if !v.IsSet(key) {
			continue
		}
		if val := v.Get(key); !cv.conv(val) {
			return conversionError(
				fmt.Sprintf("the config file %s", fname), cv, val,
			)
		}
	}

	return nil
}

// ReadFlags applies overrides of the form --Name=value (or Name=value) to
// vars.
func ReadFlags(flags []string, vars *ConfigVars) error {
	for _, flag := range flags {
		trimmed := strings.TrimLeft(flag, "-")
		name, val, ok := strings.Cut(trimmed, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("The flag '%s' does not take the form "+
				"--Name=value.", flag)
		}

		cv := vars.lookup(strings.TrimSpace(name))
		if cv == nil {
			return fmt.Errorf("The flag '%s' sets the variable '%s', but "+
				"config files of type %s don't have that variable.",
				flag, name, vars.name)
		}
		if !cv.conv(val) {
			return conversionError(fmt.Sprintf("the flag '%s'", flag), cv, val)
		}
	}
	return nil
}

func conversionError(source string, cv *configVar, val interface{}) error {
	typeName := cv.typ.String()
	a := "a"
	if typeName[0] == 'i' {
		a = "an"
	}
	return fmt.Errorf(
		"I could not parse %s because '%s' expects values of type %s and "+
			"'%v' cannot be converted to %s %s.",
		source, cv.name, typeName, val, a, typeName,
	)
}

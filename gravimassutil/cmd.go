/*
Copyright © 2026 the GraviMass authors.
This file is part of GraviMass.

GraviMass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GraviMass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GraviMass.  If not, see <http://www.gnu.org/licenses/>.
*/

package gravimassutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/BurntSushi/toml"
	"github.com/cryomodel/gravimass"
	"github.com/ctessum/gobra"
	"github.com/lnashier/viper"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to GraviMass.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MasconFile",
			usage: `
              MasconFile is the path to the mascon solution NetCDF file holding
              the observed mass change series. It can be a local path, an
              http:// or https:// URL, or a gs://, s3://, or file:// blob
              location, and can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "ModelFiles",
			usage: `
              ModelFiles are the paths to the model output NetCDF files holding
              the land ice thickness field. Local paths can be glob patterns.
              They can include environment variables.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Region",
			usage: `
              Region selects the ice sheet to compare. Acceptable values are
              'GIS' for Greenland and 'AIS' for Antarctica.`,
			defaultVal: "GIS",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "WindowStart",
			usage: `
              WindowStart is the beginning of the comparison window.
              Format = "YYYY-MM-DD".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "WindowEnd",
			usage: `
              WindowEnd is the end of the comparison window.
              Format = "YYYY-MM-DD".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the result files and the summary table
              are written into. It is created if it doesn't already exist, and
              it can include environment variables.`,
			defaultVal: "gravimass_output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "RhoIce",
			usage: `
              RhoIce is the ice density (kg/m³) used to convert thickness
              change to water equivalent.`,
			defaultVal: gravimass.RhoIce,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "RhoWater",
			usage: `
              RhoWater is the water density (kg/m³) used to convert thickness
              change to water equivalent.`,
			defaultVal: gravimass.RhoWater,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Shapefile",
			usage: `
              Shapefile specifies whether to write a mapping shapefile next to
              each result file, holding the fields specified in
              OutputVariables on the mascon footprints.`,
			shorthand:  "s",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies the fields to include in the mapping
              shapefile as expressions over the comparison values. It can
              include environment variables.`,
			defaultVal: map[string]string{
				"obs":   "obs",
				"model": "model",
				"delta": "delta",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Xlsx",
			usage: `
              Xlsx specifies whether to write the batch summary table to a
              summary.xlsx workbook in addition to summary.csv.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the amount of progress information to report.
              Acceptable values include 'debug', 'info', 'warning', and
              'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), configCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GRAVIMASS")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(configCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Printf(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gravimass: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gravimass",
	Short: "Compare ice sheet models against satellite gravimetry.",
	Long: `GraviMass compares the mass change simulated by ice sheet models against
the mass change the GRACE and GRACE-FO satellites observed, on the mascon
basis the satellite solutions are published on. Use the subcommands
specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'GRAVIMASS_var' where 'var' is the name of the variable to be set. Many
configuration variables are additionally allowed to contain environment
variables within them.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of GraviMass.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GraviMass v%s\n", gravimass.Version)
		cmd.Printf("GraviMass v%s\n", gravimass.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a batch comparison.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compare model files against the observations.",
	Long: `run stages the inputs, compares each of the model files against the
mass change the mascon solution observed over the configured window, and
writes one result file per model file, plus a summary table, to the output
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		_, err = c.Run()
		return err
	},
	DisableAutoGenTag: true,
}

// configCmd is a command that prints the resolved configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the configuration the run command would use, after
merging the configuration file, environment variables, command-line
arguments, and defaults, in TOML format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved := make(map[string]interface{})
		for _, option := range options {
			if option.name == "config" {
				continue
			}
			if option.name == "OutputVariables" {
				// The command-line representation is a JSON object;
				// decode it so it prints as a table.
				resolved[option.name] = GetStringMapString(option.name, Cfg)
				continue
			}
			resolved[option.name] = Cfg.Get(option.name)
		}
		e := toml.NewEncoder(cmd.OutOrStdout())
		if err := e.Encode(resolved); err != nil {
			return fmt.Errorf("gravimass: encoding configuration: %v", err)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// StartWebServer starts the web server.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		configFile := r.Form["config"][0]
		Root.Flags().Set("config", configFile)
		err := setConfig()
		if err != nil {
			http.Error(w, err.Error(), 204)
			return
		}
		config := make(map[string]interface{})
		for _, option := range options {
			config[option.name] = Cfg.Get(option.name)
		}
		e := json.NewEncoder(w)
		if err := e.Encode(config); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	})

	log.Println("Loading front-end...")

	for _, cmd := range []*cobra.Command{Root, versionCmd, runCmd, configCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	const address = "localhost:7272"
	const tmpl = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>GraviMass</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
		.blue-border{ border: 1px solid #35c; }
	</style>
</head>
<body>
<div class="container">
	<h1>GraviMass</h1>
	<p>Configure the comparison below.</p>
	<p>
		Color key: black=default;
		<font color="red">red</font>=error;
		<font color="green">green</font>=value from config file;
		<font color="blue">blue</font>=user entered
	</p>
	<div>
		{{.}}
	</div>
	<footer>
		© 2026 GraviMass Authors
	</footer>
</div>

<script>
// If the configuration file is changed, send the new file path
// to the server and update fields

let allFlags = [...document.querySelectorAll('[data-name]')];
allFlags.forEach(x => {
	let inputField = x.children[0];
	inputField.addEventListener("input", e => {
		inputField.classList.remove("green-border");
		inputField.classList.add("blue-border");
	})
})

let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("http://` + address + `/setConfig?config="+configInput.value)
		.then( res => {
			if (res.status !== 200) {
				if (res.status == 204) {
					configInput.classList.remove("blue-border");
					configInput.classList.remove("green-border");
					configInput.classList.add("red-border");
				} else {
					console.log("Error fetching /setConfig: ", response.text());
				}
			} else {
				res.json().then( data => {
					configInput.classList.remove("red-border");
					for (let key in data)
						for(let f of allFlags)
							if (f.dataset.name == key) {
								let input = f.children[0];
								var newValue = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
								if (input.value != newValue) {
									input.value = newValue
									input.classList.remove("blue-border");
									input.classList.add("green-border");
								}
							}
				})
			}
		})
		.catch( err => {
			console.log("Error fetching /setConfig", err)
		})
})
</script>
</body>
</html>`

	output := template.Must(template.New("").Parse(tmpl))
	server := gobra.Server{Root: Root, ServerAddress: address, AllowCORS: false, HTML: output}
	log.Println("Server starting... ")
	open.Run("http://" + address)
	fmt.Println("If not opened automatically, please visit http://" + address)
	server.Start()
}

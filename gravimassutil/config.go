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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cryomodel/gravimass"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// PipelineConfig assembles the batch comparison configuration from the
// resolved settings, expanding any environment variables they contain.
// Remote inputs are fetched lazily, when the comparison opens them.
func PipelineConfig(cfg *viper.Viper) (*gravimass.Config, error) {
	masconFile := os.ExpandEnv(cfg.GetString("MasconFile"))
	if masconFile == "" {
		return nil, fmt.Errorf(`gravimass: you need to specify the mascon solution location (for example: MasconFile="gsfc_mascons.nc")`)
	}
	modelFiles := expandStringSlice(cfg.GetStringSlice("ModelFiles"))
	if len(modelFiles) == 0 {
		return nil, fmt.Errorf("gravimass: you need to specify at least one model file in the ModelFiles configuration variable")
	}
	region := cfg.GetString("Region")
	if _, err := gravimass.ParseRegion(region); err != nil {
		return nil, err
	}
	windowStart := cfg.GetString("WindowStart")
	windowEnd := cfg.GetString("WindowEnd")
	if windowStart == "" || windowEnd == "" {
		return nil, fmt.Errorf(`gravimass: you need to specify the comparison window (for example: WindowStart="2002-04-17" WindowEnd="2020-12-16")`)
	}

	log := logrus.New()
	if s := cfg.GetString("LogLevel"); s != "" {
		level, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("gravimass: parsing LogLevel: %v", err)
		}
		log.Level = level
	}

	ctx := context.TODO()
	c := outChan()
	return &gravimass.Config{
		MasconFile:      masconFile,
		ModelFiles:      modelFiles,
		Region:          region,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		OutputDir:       os.ExpandEnv(cfg.GetString("OutputDir")),
		RhoIce:          cfg.GetFloat64("RhoIce"),
		RhoWater:        cfg.GetFloat64("RhoWater"),
		Shapefile:       cfg.GetBool("Shapefile"),
		OutputVariables: expandOutputVars(GetStringMapString("OutputVariables", cfg)),
		Xlsx:            cfg.GetBool("Xlsx"),
		Stage: func(path string) (string, error) {
			return maybeDownload(ctx, path, c)
		},
		Log: log,
	}, nil
}

// expandOutputVars removes end lines and expands environment variables in
// the output variable expressions.
func expandOutputVars(vars map[string]string) map[string]string {
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		vars[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return vars
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}

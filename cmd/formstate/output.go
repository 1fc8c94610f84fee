package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/report"
)

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func (a *app) printErrorMap(w io.Writer, errs formerrors.ErrorMap) error {
	switch a.format() {
	case formatJSON:
		return printJSON(w, errs)
	case formatTable:
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Field", "Message"})
		for _, row := range errorRows(errs) {
			tw.AppendRow(table.Row{row[0], row[1]})
		}
		tw.Render()
		return nil
	default:
		rows := errorRows(errs)
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "no field errors")
			return err
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(w, "%s: %s\n", row[0], row[1]); err != nil {
				return err
			}
		}
		return nil
	}
}

func (a *app) printState(w io.Writer, state actionstate.State) error {
	switch a.format() {
	case formatJSON:
		return printJSON(w, state)
	case formatTable:
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Field", "Value"})
		for _, row := range stateRows(state) {
			tw.AppendRow(table.Row{row[0], row[1]})
		}
		tw.Render()
		return nil
	default:
		engine, err := report.New()
		if err != nil {
			return err
		}
		_, err = engine.RenderState(state, w)
		return err
	}
}

// printInput echoes a collected form. Text output is YAML so it can be fed
// back through validate.
func (a *app) printInput(w io.Writer, input any) error {
	if a.format() == formatJSON {
		return printJSON(w, input)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(input); err != nil {
		return err
	}
	return enc.Close()
}

func errorRows(errs formerrors.ErrorMap) [][2]string {
	flat := errs.Flatten()
	fields := make([]string, 0, len(flat))
	for field := range flat {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var rows [][2]string
	for _, field := range fields {
		for _, message := range flat[field] {
			rows = append(rows, [2]string{field, message})
		}
	}
	return rows
}

func stateRows(state actionstate.State) [][2]string {
	fields := state.Map()
	delete(fields, actionstate.FieldFormErrorMap)
	delete(fields, actionstate.FieldFormData)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][2]string, 0, len(names))
	for _, name := range names {
		value := fields[name]
		if providers, ok := value.([]string); ok {
			value = strings.Join(providers, ", ")
		}
		rows = append(rows, [2]string{name, fmt.Sprint(value)})
	}
	for _, row := range errorRows(state.FormErrorMap) {
		rows = append(rows, [2]string{actionstate.FieldFormErrorMap + "." + row[0], row[1]})
	}
	return rows
}

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwellio/go-formstate/internal/prompt"
	formactions "github.com/dwellio/go-formstate/pkg/actions"
	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/listing"
	"github.com/dwellio/go-formstate/pkg/validation"
)

const (
	formProperty    = "property"
	formMessage     = "message"
	formCredentials = "credentials"

	engineSchema = "schema"
	engineStruct = "struct"
)

// forms maps a --form value to its schema component and input type.
var forms = map[string]struct {
	schema string
	input  func() any
}{
	formProperty:    {validation.FormProperty, func() any { return &listing.PropertyInput{} }},
	formMessage:     {validation.FormMessage, func() any { return &listing.MessageInput{} }},
	formCredentials: {validation.FormCredentials, func() any { return &listing.CredentialsInput{} }},
}

func (a *app) issuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issues [file]",
		Short: "Map a list of validation issues to a form error map",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			errs := a.mapper().Map(issueList(doc))
			return a.printErrorMap(cmd.OutOrStdout(), errs)
		},
	}
}

func (a *app) stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state [file]",
		Short: "Normalize a raw action result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			state := actionstate.New(actionstate.WithLogger(a.logger)).Normalize(doc)
			return a.printState(cmd.OutOrStdout(), state)
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	var form, engine string
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a form payload and print the resulting action state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := forms[strings.ToLower(form)]
			if !ok {
				return fmt.Errorf("unknown --form %q: want property, message or credentials", form)
			}
			doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var issues []formerrors.Issue
			switch strings.ToLower(engine) {
			case engineSchema:
				schemas, err := validation.NewSchemaValidator(cmd.Context())
				if err != nil {
					return err
				}
				issues, err = schemas.Validate(cmd.Context(), target.schema, doc)
				if err != nil {
					return err
				}
			case engineStruct:
				input := target.input()
				if err := decodeInto(doc, input); err != nil {
					return err
				}
				issues, err = validation.NewStructValidator().Validate(input)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown --engine %q: want schema or struct", engine)
			}

			state := a.validationState(issues, doc)
			if err := a.printState(cmd.OutOrStdout(), state); err != nil {
				return err
			}
			if state.Failed() {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form, "form", formProperty, "form to validate: property, message or credentials")
	cmd.Flags().StringVar(&engine, "engine", engineSchema, "validation engine: schema or struct")
	return cmd
}

func (a *app) validationState(issues []formerrors.Issue, formData any) actionstate.State {
	normalizer := actionstate.New(actionstate.WithLogger(a.logger))
	if len(issues) == 0 {
		return normalizer.Normalize(actionstate.RawResult{
			Status:  actionstate.StatusSuccess,
			Message: "Payload is valid",
		})
	}
	a.logger.Debug("validation failed", slog.Int("issues", len(issues)))
	return normalizer.Normalize(actionstate.RawResult{
		Status:       actionstate.StatusError,
		Message:      formactions.MsgFixErrors,
		FormErrorMap: a.mapper().Map(issues),
		FormData:     formData,
	})
}

func (a *app) promptCmd() *cobra.Command {
	var form string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in a form interactively and print the validated payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := a.driver
			if driver == nil {
				driver = prompt.NewSurveyDriver()
			}
			ctx := cmd.Context()
			validator := validation.NewStructValidator()

			var (
				property    listing.PropertyInput
				message     listing.MessageInput
				credentials listing.CredentialsInput
				errs        formerrors.ErrorMap
			)
			for {
				var (
					input any
					err   error
				)
				switch strings.ToLower(form) {
				case formProperty:
					property, err = prompt.CollectProperty(ctx, driver, property, errs)
					input = property
				case formMessage:
					message, err = prompt.CollectMessage(ctx, driver, message, errs)
					input = message
				case formCredentials:
					credentials, err = prompt.CollectCredentials(ctx, driver, credentials, errs)
					input = credentials
				default:
					return fmt.Errorf("unknown --form %q: want property, message or credentials", form)
				}
				if err != nil {
					return err
				}

				issues, err := validator.Validate(input)
				if err != nil {
					return err
				}
				if len(issues) == 0 {
					if c, ok := input.(listing.CredentialsInput); ok {
						c.Password = strings.Repeat("*", len(c.Password))
						input = c
					}
					return a.printInput(cmd.OutOrStdout(), input)
				}

				state := a.validationState(issues, input)
				if err := a.printState(cmd.ErrOrStderr(), state); err != nil {
					return err
				}
				again, err := prompt.Retry(ctx, driver, state.FormErrorMap.Len())
				if err != nil {
					return err
				}
				if !again {
					return errInvalid
				}
				errs = state.FormErrorMap
			}
		},
	}
	cmd.Flags().StringVar(&form, "form", formProperty, "form to fill in: property, message or credentials")
	return cmd
}

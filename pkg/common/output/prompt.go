package output

import (
	"github.com/AlecAivazis/survey/v2"
)

// Confirm asks a yes/no question defaulting to no.
func Confirm(prompt string) (bool, error) {
	return ConfirmWithDefault(prompt, false)
}

func ConfirmWithDefault(prompt string, defaultValue bool) (bool, error) {
	result := defaultValue
	err := survey.AskOne(&survey.Confirm{
		Message: prompt,
		Default: defaultValue,
	}, &result)
	return result, err
}

// InputString prompts for free text. validator may be nil.
func InputString(prompt, help, defaultValue string, validator func(string) error) (string, error) {
	var result string
	q := &survey.Input{
		Message: prompt,
		Help:    help,
		Default: defaultValue,
	}
	if err := survey.AskOne(q, &result, validatorOpts(validator)...); err != nil {
		return "", err
	}
	return result, nil
}

// InputHiddenString prompts without echoing the answer.
func InputHiddenString(prompt, help string, validator func(string) error) (string, error) {
	var result string
	q := &survey.Password{
		Message: prompt,
		Help:    help,
	}
	if err := survey.AskOne(q, &result, validatorOpts(validator)...); err != nil {
		return "", err
	}
	return result, nil
}

func SelectString(prompt string, options []string) (string, error) {
	var result string
	q := &survey.Select{
		Message: prompt,
		Options: options,
	}
	if err := survey.AskOne(q, &result); err != nil {
		return "", err
	}
	return result, nil
}

func validatorOpts(validator func(string) error) []survey.AskOpt {
	if validator == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return validator(s)
	})}
}

package commission

import "errors"

var (
	ErrRuleNotFound      = errors.New("правило комиссии не найдено")
	ErrDriverNotFound    = errors.New("водитель не найден")
	ErrDefaultRuleDelete = errors.New("правило по умолчанию нельзя удалить")
	ErrInvalidRule       = errors.New("некорректное правило комиссии")
	ErrInvalidRate       = errors.New("некорректная ставка комиссии")
	ErrInvalidAmount     = errors.New("сумма должна быть больше нуля")
)

package validation

import (
	"fmt"
	"unicode/utf8"
)

// Константы валидации
const (
	MinProjectTitleLength       = 3
	MaxProjectTitleLength       = 200
	MinProjectDescriptionLength = 10
	MaxProjectDescriptionLength = 5000
	MinCoverLetterLength        = 10
	MaxCoverLetterLength        = 2000
	MinMilestoneTitleLength     = 1
	MaxMilestoneTitleLength     = 200
	MinDisputeReasonLength      = 3
	MaxDisputeReasonLength      = 200
	MaxDisputeDescriptionLength = 5000
	MinAmount                   = 0.0
	MaxAmount                   = 100000000.0 // 100 миллионов
	MaxDeliveryDays             = 3650
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateAmount проверяет денежную сумму.
func ValidateAmount(fieldName string, amount float64) error {
	if amount <= MinAmount {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if amount > MaxAmount {
		return fmt.Errorf("%s превышает допустимый максимум", fieldName)
	}
	return nil
}

// ValidateBudgetRange проверяет согласованность бюджета.
func ValidateBudgetRange(budgetMin, budgetMax *float64) error {
	if budgetMin != nil {
		if err := ValidateAmount("минимальный бюджет", *budgetMin); err != nil {
			return err
		}
	}
	if budgetMax != nil {
		if err := ValidateAmount("максимальный бюджет", *budgetMax); err != nil {
			return err
		}
	}
	if budgetMin != nil && budgetMax != nil && *budgetMin > *budgetMax {
		return fmt.Errorf("минимальный бюджет не может быть больше максимального")
	}
	return nil
}

// ValidateDeliveryDays проверяет срок исполнения в днях.
func ValidateDeliveryDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("срок исполнения должен быть положительным")
	}
	if days > MaxDeliveryDays {
		return fmt.Errorf("срок исполнения превышает допустимый максимум")
	}
	return nil
}

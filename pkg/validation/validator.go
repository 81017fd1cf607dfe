package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Validator предоставляет общие функции валидации
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRequiredFields проверяет обязательные поля в структуре
func (v *Validator) ValidateRequiredFields(req interface{}, requiredFields map[string]string) error {
	// Используем reflection или type assertion для проверки полей
	// Это базовая реализация, которую можно расширить

	switch r := req.(type) {
	case map[string]interface{}:
		for field, fieldName := range requiredFields {
			if value, exists := r[field]; !exists || value == nil || value == "" {
				return fmt.Errorf("%s is required", fieldName)
			}
		}
	default:
		// Для конкретных типов можно добавить type assertion
		return fmt.Errorf("unsupported request type for validation")
	}

	return nil
}

// ValidateURL проверяет корректность URL
func (v *Validator) ValidateURL(target string, allowedSchemes []string) error {
	if target == "" {
		return fmt.Errorf("target is required")
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	// Проверяем схему
	if len(allowedSchemes) > 0 {
		schemeValid := false
		for _, scheme := range allowedSchemes {
			if parsedURL.Scheme == scheme {
				schemeValid = true
				break
			}
		}
		if !schemeValid {
			return fmt.Errorf("URL must use one of allowed schemes %v, got: %s", allowedSchemes, parsedURL.Scheme)
		}
	}

	// Проверяем хост
	if parsedURL.Host == "" {
		return fmt.Errorf("URL must have a valid host")
	}

	// Проверяем, что нет недопустимых символов
	if strings.ContainsAny(target, " \t\n\r") {
		return fmt.Errorf("URL contains invalid whitespace characters")
	}

	return nil
}

// ValidateHostPort проверяет корректность host:port формата
func (v *Validator) ValidateHostPort(target string) error {
	if target == "" {
		return fmt.Errorf("target is required")
	}

	// Проверяем базовый формат
	if strings.ContainsAny(target, " \t\n\r") {
		return fmt.Errorf("target contains invalid whitespace characters")
	}

	// Проверяем, что target не содержит недопустимых схем
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return fmt.Errorf("target should not include http/https scheme")
	}

	return nil
}

// ValidateInterval проверяет корректность интервала
func (v *Validator) ValidateInterval(interval int32, min, max int32) error {
	if interval < min {
		return fmt.Errorf("interval must be at least %d seconds, got: %d", min, interval)
	}
	if interval > max {
		return fmt.Errorf("interval must not exceed %d seconds, got: %d", max, interval)
	}
	return nil
}

// ValidateTimeout проверяет корректность таймаута
func (v *Validator) ValidateTimeout(timeout int32, min, max int32) error {
	if timeout < min {
		return fmt.Errorf("timeout must be at least %d second, got: %d", min, timeout)
	}
	if timeout > max {
		return fmt.Errorf("timeout must not exceed %d seconds, got: %d", max, timeout)
	}
	return nil
}

// ValidateCronExpression выполняет базовую валидацию cron выражения
func (v *Validator) ValidateCronExpression(cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}

	// Базовая проверка формата - должно содержать 5 полей, разделенных пробелами
	fields := strings.Fields(cronExpr)
	if len(fields) != 5 {
		return fmt.Errorf("cron expression must have exactly 5 fields (minute hour day month weekday), got %d", len(fields))
	}

	// Проверяем, что поля не содержат недопустимых символов
	for i, field := range fields {
		if field == "*" {
			continue // wildcard разрешен
		}

		// Проверяем, что поле состоит только из допустимых символов
		for _, char := range field {
			if !((char >= '0' && char <= '9') || char == ',' || char == '-' || char == '/' || char == '*') {
				return fmt.Errorf("invalid character '%c' in cron expression field %d", char, i+1)
			}
		}
	}

	return nil
}

// ValidateEnum проверяет значение на соответствие enum
func (v *Validator) ValidateEnum(value string, allowedValues []string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return fmt.Errorf("invalid %s: %s, allowed values: %v", fieldName, value, allowedValues)
}

// ValidateStringLength проверяет длину строки
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := len(value)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters, got: %d", fieldName, min, length)
	}
	if length > max {
		return fmt.Errorf("%s must not exceed %d characters, got: %d", fieldName, max, length)
	}
	return nil
}

// ValidateUUID проверяет формат UUID
func (v *Validator) ValidateUUID(uuid string, fieldName string) error {
	if uuid == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	// Базовая проверка формата UUID (длина и дефисы)
	if len(uuid) != 36 {
		return fmt.Errorf("invalid %s format: must be 36 characters", fieldName)
	}

	if strings.Count(uuid, "-") != 4 {
		return fmt.Errorf("invalid %s format: must contain 4 hyphens", fieldName)
	}

	return nil
}

// ValidateTimestamp проверяет временной штамп
func (v *Validator) ValidateTimestamp(ts time.Time, fieldName string) error {
	if ts.IsZero() {
		return fmt.Errorf("%s cannot be zero", fieldName)
	}

	if ts.After(time.Now().Add(24 * time.Hour)) {
		return fmt.Errorf("%s cannot be more than 24 hours in the future", fieldName)
	}

	return nil
}

var safeUrlAllowedPorts = map[string]bool{
	"80": true, "443": true, "8080": true, "8443": true,
}

// SafeUrl is the SSRF guard applied to every webhook registration and
// every redirect hop during dispatch. It is deliberately string-based:
// it does not resolve DNS, so a hostname that aliases to a private IP
// address bypasses it. That limitation is accepted and must not be
// silently patched by resolving hosts here.
func SafeUrl(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}

	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "0.0.0.0", "::1", "[::1]":
		return false
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return false
		}
	}

	if port := parsed.Port(); port != "" {
		if !safeUrlAllowedPorts[port] {
			return false
		}
	}

	return true
}

func isBlockedIP(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}

	switch v4[0] {
	case 10:
		return true
	case 192:
		return v4[1] == 168
	case 172:
		return v4[1] >= 16 && v4[1] <= 31
	case 169:
		return v4[1] == 254
	}
	return false
}

package domain

import "errors"

// ErrMessageNotFound возвращается, когда комплимент на дату и язык не найден.
var ErrMessageNotFound = errors.New("комплимент не найден")

// ErrDuplicateMessage возвращается при повторной вставке комплимента на ту же дату и язык.
var ErrDuplicateMessage = errors.New("комплимент на эту дату уже сохранён")

// ErrSubscriberNotFound возвращается, когда подписчик неизвестен.
var ErrSubscriberNotFound = errors.New("подписчик не найден")

// ErrUnsupportedLanguage возвращается для языка вне поддерживаемого набора.
var ErrUnsupportedLanguage = errors.New("язык не поддерживается")

// ErrInvalidHour возвращается для часа вне диапазона 0-23.
var ErrInvalidHour = errors.New("час должен быть от 0 до 23")

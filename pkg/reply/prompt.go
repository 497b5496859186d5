package reply

import (
	"strconv"
	"strings"
	"time"

	"replybot/pkg/market"
)

// DefaultPromptTemplate is the built-in generation instruction. Placeholders:
// {rating}, {text}, {date}, {time}. Operators override the template via
// config when a different language or tone is needed.
const DefaultPromptTemplate = `Привет! Ты — ИИ-ассистент в магазине игровых ценностей.
Данные заказа:
    - Оценка: {rating} из 5
    - Отзыв: {text}

Составь дружелюбный ответ:
- Используй много эмодзи.
- Пожелай что-то хорошее.
- Сделай шутку про покупку.
- В конце добавь: спасибо за {rating} звезд и отзыв от {date} {time}! Мы очень рады, что вам понравилась покупка.
Не используй HTML, markdown или код.`

// Defaults applied when a review or its fields are absent. Building a prompt
// must not fail.
const (
	defaultRating = "5"
	defaultText   = "Спасибо!"
)

// PromptBuilder turns a review snapshot plus the current instant into a
// generation instruction. Stateless; the timestamp is the only environmental
// input.
type PromptBuilder struct {
	template string
}

// NewPromptBuilder creates a builder. An empty template selects the built-in
// one.
func NewPromptBuilder(template string) *PromptBuilder {
	if template == "" {
		template = DefaultPromptTemplate
	}
	return &PromptBuilder{template: template}
}

// Build interpolates the order's review into the instruction template.
func (b *PromptBuilder) Build(order *market.Order, now time.Time) string {
	rating := defaultRating
	text := defaultText
	if order != nil && order.Review != nil {
		if order.Review.Stars != nil {
			rating = strconv.Itoa(*order.Review.Stars)
		}
		if order.Review.Text != "" {
			text = order.Review.Text
		}
	}

	replacer := strings.NewReplacer(
		"{rating}", rating,
		"{text}", text,
		"{date}", now.Format("02.01.2006"),
		"{time}", now.Format("15:04:05"),
	)
	return replacer.Replace(b.template)
}

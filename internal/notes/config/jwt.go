package config

// JWTConfig содержит настройки проверки JWT токенов.
// Токены выпускает внешний сервис аутентификации, здесь нужен только общий секрет.
type JWTConfig struct {
	SecretKey string `yaml:"secret_key" env:"JWT_SECRET_KEY" env-default:"2hlsdwbzmv7yGxbQ4sIah/MuvvNoe889pbEzZql0SU8n3U1gYi29gZnFQKxiUdGH"`
}

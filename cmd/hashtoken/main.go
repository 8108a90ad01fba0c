// hashtoken — утилита для генерации токена HTTP API и его Argon2id хеша.
// Запуск: go run ./cmd/hashtoken [токен]
//
// Без аргумента генерирует случайный токен. Хеш вставьте в .env как HTTP_TOKEN_HASH,
// а сам токен передавайте в заголовке Authorization: Bearer <токен>.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/habit-bot/internal/api"
)

func main() {
	var token string
	if len(os.Args) > 1 {
		token = os.Args[1]
	} else {
		var err error
		if token, err = api.GenerateToken(); err != nil {
			fmt.Printf("Ошибка генерации токена: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Токен (сохраните, повторно его не получить):")
		fmt.Println(token)
		fmt.Println()
	}

	hash, err := api.HashToken(token, api.DefaultHashParams)
	if err != nil {
		fmt.Printf("Ошибка хеширования: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Хеш токена (вставьте в .env как HTTP_TOKEN_HASH):")
	fmt.Println(hash)
}

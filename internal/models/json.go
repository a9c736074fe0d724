package models

// JSONMap хранится в json-колонке через встроенный сериализатор gorm
type JSONMap map[string]any

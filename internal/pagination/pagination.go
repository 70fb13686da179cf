package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 5
)

// Info - метаданные страницы в том виде, в котором их отдает слой отображения
type Info struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	Limit     int `json:"limit"`
	Count     int `json:"count"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
}

// Page - срез результатов плюс метаданные
type Page[T any] struct {
	Items []T  `json:"items"`
	Info  Info `json:"pageInfo"`
}

// Window считает окно [offset, offset+limit) для count элементов.
// page и limit меньше 1 заменяются значениями по умолчанию.
func Window(page, limit, count int) (offset int, info Info) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	start := (page - 1) * limit
	end := page * limit
	if end > count {
		end = count
	}

	pageCount := 0
	if count > 0 {
		pageCount = (count + limit - 1) / limit
	}

	return start, Info{
		Start:     start + 1,
		End:       end,
		Limit:     limit,
		Count:     count,
		Page:      page,
		PageCount: pageCount,
	}
}

// Paginate режет уже упорядоченный список. Страница за пределами дает пустой срез.
func Paginate[T any](items []T, page, limit int) Page[T] {
	offset, info := Window(page, limit, len(items))
	if offset >= len(items) {
		return Page[T]{Items: []T{}, Info: info}
	}
	return Page[T]{Items: items[offset:info.End], Info: info}
}

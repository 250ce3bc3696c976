package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/vacancies"
)

type SearchParams struct {
	Text string `yaml:"text"`
	// hhparam is custom tag for reflect. Please see below.
	Areas       []int  `hhparam:"area"`
	OrderBy     string `yaml:"order_by" mapstructure:"order_by"`
	SearchField string `yaml:"search_field" mapstructure:"search_field"`
	PerPage     string `yaml:"per_page" mapstructure:"per_page"`
	Experience  string `yaml:"experience"`
	Period      uint   `yaml:"period"`
	// MaxPages limits how many result pages are fetched. It is not sent to the API.
	MaxPages int `hhparam:"-" mapstructure:"max_pages"`
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	var vacancies []*Vacancy

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = perPage
	}

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q, params.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("search vacancies: %w", err)
	}

	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &vacancies,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode vacancies: %w", err)
	}

	return &Vacancies{
		Items: vacancies,
	}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "-" {
			continue
		}
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}
		value := reflect.ValueOf(params).Elem().Field(field.Index[0])
		switch field.Type.Kind() {
		case reflect.Slice:
			switch v := value.Interface().(type) {
			case []int:
				for _, item := range v {
					q.Add(key, strconv.Itoa(item))
				}
			case []string:
				for _, item := range v {
					q.Add(key, item)
				}
			}

		default:
			s := fmt.Sprintf("%v", value.Interface())
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}

package testutil

import (
	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

func mustDate(s string) trademark.Date {
	d, err := trademark.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Trademarks returns a fresh copy of a small registry covering registered,
// pending and refused marks with Korean and English names.
func Trademarks() []*trademark.Trademark {
	return []*trademark.Trademark{
		{
			ApplicationNumber:  "4020200000101",
			ProductName:        "스타벅스 커피",
			ProductNameEng:     "STARBUCKS COFFEE",
			ApplicationDate:    mustDate("20200105"),
			RegisterStatus:     "등록",
			PublicationNumber:  "4020200050101",
			PublicationDate:    mustDate("20200610"),
			RegistrationNumber: []string{"4012345670000"},
			RegistrationDate:   []trademark.Date{mustDate("20200901")},
			ProductMainCodes:   []string{"30", "43"},
			ProductSubCodes:    []string{"G0301"},
		},
		{
			ApplicationNumber:  "4020210000202",
			ProductName:        "커피빈",
			ProductNameEng:     "COFFEE BEAN",
			ApplicationDate:    mustDate("20210315"),
			RegisterStatus:     "등록",
			RegistrationNumber: []string{"4012345680000"},
			RegistrationDate:   []trademark.Date{mustDate("20211120")},
			ProductMainCodes:   []string{"30"},
		},
		{
			ApplicationNumber: "4020220000303",
			ProductName:       "이디야 커피",
			ProductNameEng:    "EDIYA COFFEE",
			ApplicationDate:   mustDate("20220720"),
			RegisterStatus:    "출원",
			ProductMainCodes:  []string{"43"},
		},
		{
			ApplicationNumber: "4020230000404",
			ProductName:       "스타필드",
			ProductNameEng:    "STARFIELD",
			ApplicationDate:   mustDate("20230111"),
			RegisterStatus:    "거절",
			ProductMainCodes:  []string{"35"},
			ViennaCodeList:    []string{"260101"},
		},
		{
			ApplicationNumber: "4020230000505",
			ProductName:       "삼성전자",
			ProductNameEng:    "SAMSUNG ELECTRONICS",
			ApplicationDate:   mustDate("20230402"),
			RegisterStatus:    "등록",
			ProductMainCodes:  []string{"09"},
		},
	}
}

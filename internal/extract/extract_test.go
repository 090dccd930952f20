package extract

import (
	"reflect"
	"testing"
)

func TestExtract_EnglishFullUtterance(t *testing.T) {
	p := Extract("My name is John Smith, I am 45 years old, pain level 7 in my chest")

	if p.Name == nil || *p.Name != "John Smith" {
		t.Fatalf("expected name John Smith, got %v", p.Name)
	}
	if p.Age == nil || *p.Age != 45 {
		t.Fatalf("expected age 45, got %v", p.Age)
	}
	if p.PainLocation == nil || *p.PainLocation != "chest" {
		t.Fatalf("expected pain location chest, got %v", p.PainLocation)
	}
	if p.PainLevel == nil || *p.PainLevel != 7 {
		t.Fatalf("expected pain level 7, got %v", p.PainLevel)
	}
	if p.Injury != nil {
		t.Fatalf("expected no injury, got %q", *p.Injury)
	}
}

func TestExtract_ChineseAllergyAndAccident(t *testing.T) {
	p := Extract("对青霉素过敏，发生了车祸")

	if p.Allergies == nil || *p.Allergies != "青霉素" {
		t.Fatalf("expected allergies 青霉素, got %v", p.Allergies)
	}
	if p.Injury == nil || *p.Injury != "发生了车祸" {
		t.Fatalf("expected injury 发生了车祸, got %v", p.Injury)
	}
	if p.Name != nil {
		t.Fatalf("expected no name, got %q", *p.Name)
	}
}

func TestExtract_ChinesePainAndLevel(t *testing.T) {
	p := Extract("我叫李明，我30岁，头很痛，疼痛等级是8")

	if p.Name == nil || *p.Name != "李明" {
		t.Fatalf("expected name 李明, got %v", p.Name)
	}
	if p.Age == nil || *p.Age != 30 {
		t.Fatalf("expected age 30, got %v", p.Age)
	}
	if p.PainLocation == nil || *p.PainLocation != "头" {
		t.Fatalf("expected pain location 头, got %v", p.PainLocation)
	}
	if p.PainLevel == nil || *p.PainLevel != 8 {
		t.Fatalf("expected pain level 8, got %v", p.PainLevel)
	}
}

func TestExtract_FirstRuleWins(t *testing.T) {
	// Both the Chinese and English age rules could match; the Chinese
	// rule comes first in the cascade.
	p := Extract("他25岁, he is 40 years old")
	if p.Age == nil || *p.Age != 25 {
		t.Fatalf("expected age 25 from the first matching rule, got %v", p.Age)
	}
}

func TestExtract_PainLevelUnbounded(t *testing.T) {
	// The parser imposes no upper bound on the spoken level; 15 stays 15.
	p := Extract("pain level 15 in my back")
	if p.PainLevel == nil || *p.PainLevel != 15 {
		t.Fatalf("expected pain level 15, got %v", p.PainLevel)
	}
	if p.PainLocation == nil || *p.PainLocation != "back" {
		t.Fatalf("expected pain location back, got %v", p.PainLocation)
	}
}

func TestExtract_AbsentFields(t *testing.T) {
	p := Extract("hello there")

	if p.Name != nil || p.Age != nil || p.Injury != nil || p.PainLocation != nil || p.PainLevel != nil || p.Allergies != nil {
		t.Fatalf("expected empty profile, got %+v", p)
	}
	if p.Symptoms == nil || len(p.Symptoms) != 0 {
		t.Fatalf("expected empty non-nil symptoms, got %v", p.Symptoms)
	}
}

func TestExtract_SymptomsCollectAcrossRules(t *testing.T) {
	p := Extract("病人晕倒了，头部出血，可能骨折")

	want := []string{"晕倒", "出血", "骨折"}
	if !reflect.DeepEqual(p.Symptoms, want) {
		t.Fatalf("expected symptoms %v, got %v", want, p.Symptoms)
	}
}

func TestExtract_SymptomCaseInsensitiveEnglish(t *testing.T) {
	p := Extract("The patient COLLAPSED and has Difficulty Breathing")

	if len(p.Symptoms) != 2 {
		t.Fatalf("expected 2 symptoms, got %v", p.Symptoms)
	}
	if p.Symptoms[0] != "COLLAPSED" {
		t.Fatalf("expected matched text to keep its original casing, got %q", p.Symptoms[0])
	}
}

func TestExtract_EnglishInjuryCascade(t *testing.T) {
	p := Extract("I was in a traffic accident and I fell")
	// The accident rule precedes the generic verb rule.
	if p.Injury == nil || *p.Injury != "traffic accident" {
		t.Fatalf("expected injury traffic accident, got %v", p.Injury)
	}
}

func TestExtract_AllergicToEnglish(t *testing.T) {
	p := Extract("I am allergic to penicillin, my head hurts")
	if p.Allergies == nil || *p.Allergies != "penicillin" {
		t.Fatalf("expected allergies penicillin, got %v", p.Allergies)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "My name is Jane Doe, I am 30 years old, chest pain, bleeding"
	a := Extract(text)
	b := Extract(text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("extraction not deterministic: %+v vs %+v", a, b)
	}
}
